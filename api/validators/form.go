package validators

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	maxFormBytes = 1 << 20
	maxFormValue = 4096
)

var falseValues = map[string]struct{}{
	"0":     {},
	"false": {},
	"off":   {},
	"no":    {},
}

// DecodeForm binds an urlencoded body into dest by its `form` tags and runs validation.
// A bool field is true when its key is present with any value other than 0/false/off/no.
// A number field whose key is present but does not parse is set to zero.
func DecodeForm(r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	if err := bindForm(r.PostForm, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bind form")
	}
	return Struct(dest)
}

// DecodeFormPairs reads the raw body as ordered key/value pairs.
func DecodeFormPairs(r *http.Request) ([]cart.FormPair, []cart.SkippedPair, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxFormBytes))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	pairs, skipped := cart.ParseFormPairs(string(raw))
	return pairs, skipped, nil
}

func bindForm(values map[string][]string, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("form destination must be a struct pointer, got %T", dest)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		raw, present := values[name]
		if !present || len(raw) == 0 {
			continue
		}
		value := SanitizeString(raw[0], maxFormValue)

		target := rv.Field(i)
		switch target.Kind() {
		case reflect.String:
			target.SetString(value)
		case reflect.Bool:
			_, isFalse := falseValues[strings.ToLower(value)]
			target.SetBool(!isFalse)
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				n = 0
			}
			target.SetInt(n)
		default:
			return fmt.Errorf("unsupported form field %s of kind %s", field.Name, target.Kind())
		}
	}
	return nil
}
