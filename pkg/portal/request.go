package portal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
)

// Request describes one search call: a result type, a query expression
// over that type's vocabulary, the fields to return, and an optional
// result limit (0 means the portal default).
type Request struct {
	Result ResultType
	Query  Expression
	Fields []string
	Limit  int
}

// Validate checks the request against the result type's field vocabulary.
// Every clause field in the query tree and every requested field must
// belong to the vocabulary. Violations are construction errors, caught
// before any network call.
func (r Request) Validate() error {
	vocab, ok := vocabularies[r.Result]
	if !ok {
		return fmt.Errorf("%w: unknown result type %q", apperrors.ErrInvalidQuery, r.Result)
	}
	if r.Query == nil {
		return fmt.Errorf("%w: missing query expression", apperrors.ErrInvalidQuery)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("%w: no fields requested", apperrors.ErrInvalidQuery)
	}
	for _, f := range r.Fields {
		if _, ok := vocab[f]; !ok {
			return fmt.Errorf("%w: field %q is not a %s field", apperrors.ErrInvalidQuery, f, r.Result)
		}
	}
	return r.Query.eachClause(func(c Clause) error {
		if _, ok := vocab[c.Field]; !ok {
			return fmt.Errorf("%w: clause field %q is not a %s field", apperrors.ErrInvalidQuery, c.Field, r.Result)
		}
		return nil
	})
}

// params serializes the request into the portal's query-string contract.
// The query expression is wrapped in double quotes; fields are comma
// joined; format is always json; the dataPortal tag is fixed per
// deployment; offset is used for paging through large result sets.
func (r Request) params(portalTag DataPortal, offset int) url.Values {
	v := url.Values{}
	v.Set("result", string(r.Result))
	v.Set("query", `"`+r.Query.String()+`"`)
	v.Set("fields", strings.Join(r.Fields, ","))
	v.Set("format", "json")
	v.Set("dataPortal", string(portalTag))
	if r.Limit > 0 {
		v.Set("limit", strconv.Itoa(r.Limit))
	}
	if offset > 0 {
		v.Set("offset", strconv.Itoa(offset))
	}
	return v
}
