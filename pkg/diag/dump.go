// Package diag prints a deep, walk-the-chain dump of an error when
// AM3_DEBUG=1, for diagnosing a child that failed to spawn. Adapted from
// pkg/fmtt/printe.go's PrintErrChainDebug.
package diag

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// Dump walks err's Unwrap chain, printing each layer's type, Error()
// string, a spew.Dump of its value, and its exported struct fields. Only
// called from internal/supervisor, on a spawn error, when AM3_DEBUG=1; ordinary operation
// never pays this cost.
func Dump(err error) {
	for i := 0; err != nil; err = errors.Unwrap(err) {
		fmt.Printf("[%d] %T\n", i, err)
		fmt.Printf("   Error(): %v\n", err)

		spew.Dump(err)

		rv := reflect.ValueOf(err)
		rt := reflect.TypeOf(err)
		if rt.Kind() == reflect.Ptr {
			rv = rv.Elem()
			rt = rt.Elem()
		}
		if rt.Kind() == reflect.Struct {
			for j := 0; j < rt.NumField(); j++ {
				f := rt.Field(j)
				v := rv.Field(j)
				if v.CanInterface() {
					fmt.Printf("   Field %s (%s): %+v\n", f.Name, f.Type, v.Interface())
				}
			}
		}

		i++
	}
}
