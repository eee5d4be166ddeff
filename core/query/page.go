package query

import (
	"math"

	"github.com/asaidimu/go-crudsql/core"
)

// Page is a 1-based page request.
type Page struct {
	Index int64 `json:"index" yaml:"index"`
	Size  int64 `json:"size" yaml:"size"`
}

// Validate rejects a non-positive index or size and pages whose last row
// number would overflow.
func (p Page) Validate() error {
	if p.Index < 1 {
		return core.NewArgumentError("page", "index must be at least 1, got %d", p.Index)
	}
	if p.Size < 1 {
		return core.NewArgumentError("page", "size must be at least 1, got %d", p.Size)
	}
	if p.Index > math.MaxInt64/p.Size {
		return core.NewArgumentError("page", "page %d of size %d is out of range", p.Index, p.Size)
	}
	return nil
}

// Calculate returns the rows to skip and take for a page. There is no
// clamping against a row count: a page past the end simply yields no rows.
func Calculate(index, size int64) (skip, take int64) {
	return (index - 1) * size, size
}
