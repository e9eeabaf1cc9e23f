package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/bootstrap"
	"github.com/schale-tools/baad/pkg/errors"
)

// serverInfo is the connection-groups document served by the game API. Only
// the addressables root is of interest here.
type serverInfo struct {
	ConnectionGroups []connectionGroup `json:"ConnectionGroups"`
}

type connectionGroup struct {
	OverrideConnectionGroups []overrideConnectionGroup `json:"OverrideConnectionGroups"`
}

type overrideConnectionGroup struct {
	AddressablesCatalogURLRoot string `json:"AddressablesCatalogUrlRoot"`
}

// NormalizeManifestRoot expands a user-supplied manifest root shorthand into a
// full URL. Full URLs pass through, patch-channel names (containing an
// underscore) are joined onto the client patch host, and anything else is
// treated as a bare host.
func (s *Service) NormalizeManifestRoot(root string) string {
	switch {
	case strings.HasPrefix(root, "http://"), strings.HasPrefix(root, "https://"):
		return root
	case strings.Contains(root, "_"):
		return fmt.Sprintf("%s/%s", s.ClientPatchHost, root)
	default:
		return "https://" + root
	}
}

// ResolveManifestRoot determines the addressables catalog root for a version.
// An explicit root shorthand short-circuits the lookup; otherwise the server
// API URL is recovered from the cached game package via the bootstrap scan and
// the root is read from the connection-groups document it serves.
func (s *Service) ResolveManifestRoot(ctx context.Context, version, explicitRoot string) (string, error) {
	if explicitRoot != "" {
		return s.NormalizeManifestRoot(explicitRoot), nil
	}

	roots := bootstrap.SearchRoots(s.store, version, bootstrap.DefaultRoot())
	blob, err := bootstrap.Locate(roots)
	if err != nil {
		return "", err
	}
	apiURL, err := bootstrap.Decrypt(blob)
	if err != nil {
		return "", err
	}
	logger.Debugf("Resolved server API URL: %s", apiURL)

	var info serverInfo
	if err := s.getJSON(ctx, apiURL, &info); err != nil {
		return "", err
	}
	if len(info.ConnectionGroups) == 0 || len(info.ConnectionGroups[0].OverrideConnectionGroups) == 0 {
		return "", errors.Wrap(errors.ErrCatalogDecode, "server info has no connection groups")
	}
	overrides := info.ConnectionGroups[0].OverrideConnectionGroups
	root := overrides[len(overrides)-1].AddressablesCatalogURLRoot
	if root == "" {
		return "", errors.Wrap(errors.ErrCatalogDecode, "connection group has an empty catalog root")
	}
	return root, nil
}
