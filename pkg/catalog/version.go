package catalog

import (
	"context"
	"fmt"

	goversion "github.com/hashicorp/go-version"

	"github.com/schale-tools/baad/pkg/errors"
)

type noticeIndex struct {
	LatestClientVersion string `json:"LatestClientVersion"`
}

// FetchVersion queries the notice index for the latest client version,
// e.g. "1.57.360497".
func (s *Service) FetchVersion(ctx context.Context) (string, error) {
	var idx noticeIndex
	if err := s.getJSON(ctx, s.VersionIndexURL, &idx); err != nil {
		return "", err
	}
	if idx.LatestClientVersion == "" {
		return "", errors.Wrap(errors.ErrFetchFailed, "notice index has no client version")
	}
	return idx.LatestClientVersion, nil
}

// ExtractVersionCode returns the build number component of a client version
// string. Client versions have the shape "1.<minor>.<code>" where the code is
// a non-zero build counter.
func ExtractVersionCode(ver string) (int, error) {
	v, err := goversion.NewVersion(ver)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCatalogDecode, "invalid client version %q", ver)
	}
	segs := v.Segments()
	if len(segs) < 3 || segs[0] != 1 || segs[2] == 0 {
		return 0, fmt.Errorf("%w: unexpected client version %q", errors.ErrCatalogDecode, ver)
	}
	return segs[2], nil
}
