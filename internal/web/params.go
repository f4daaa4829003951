package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/salesdesk/internal/core"
)

// filterParams are the query parameters of the summary endpoints.
type filterParams struct {
	Start  string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Group  string `query:"group" validate:"max=200"`
	Class  string `query:"class" validate:"max=200"`
	Search string `query:"q" validate:"max=200"`
}

// loadParams are the form fields of a load besides the file itself.
type loadParams struct {
	Encoding string `query:"encoding" validate:"omitempty,max=40,encoding"`
}

// newValidator builds the validator used for request parameters.
// Error field names are taken from the query tag so messages name what the
// client actually sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		return core.SupportedEncoding(fl.Field().String())
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("query")
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseFilterParams reads and validates filter parameters from the query
// string.
func (s *Server) parseFilterParams(r *http.Request) (core.FilterCriteria, error) {
	q := r.URL.Query()
	p := filterParams{
		Start:  strings.TrimSpace(q.Get("start")),
		End:    strings.TrimSpace(q.Get("end")),
		Group:  q.Get("group"),
		Class:  q.Get("class"),
		Search: q.Get("q"),
	}
	if err := s.validate.Struct(p); err != nil {
		return core.FilterCriteria{}, describeValidation(err)
	}

	return core.FilterCriteria{
		Start:  core.ParseDate(p.Start),
		End:    core.ParseDate(p.End),
		Group:  p.Group,
		Class:  p.Class,
		Search: p.Search,
	}, nil
}

// parseLoadParams validates the optional load fields.
func (s *Server) parseLoadParams(r *http.Request) (loadParams, error) {
	p := loadParams{Encoding: strings.TrimSpace(r.FormValue("encoding"))}
	if err := s.validate.Struct(p); err != nil {
		return loadParams{}, describeValidation(err)
	}
	return p, nil
}

// paramError carries a user-safe description of a bad parameter.
type paramError struct {
	base   error
	detail string
}

func (e *paramError) Error() string { return e.base.Error() + ": " + e.detail }
func (e *paramError) Unwrap() error { return e.base }

// describeValidation turns validator errors into a paramError.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &paramError{base: errInvalidParam, detail: err.Error()}
	}

	fe := verrs[0]
	base := errInvalidParam
	if fe.Tag() == "datetime" {
		base = errInvalidDate
	}

	var detail string
	switch fe.Tag() {
	case "datetime":
		detail = fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field())
	case "max":
		detail = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "encoding":
		detail = fmt.Sprintf("%s %q is not a supported encoding", fe.Field(), fe.Value())
	default:
		detail = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return &paramError{base: base, detail: detail}
}

// detailOf returns the user-safe detail of a parameter error.
func detailOf(err error) string {
	var pe *paramError
	if errors.As(err, &pe) {
		return pe.detail
	}
	return ""
}
