package export

import (
	"fmt"
	"strconv"
	"time"
)

// FormatValue renders a projected value as a table cell. Nil pointers render
// empty and timestamps use RFC 3339 in UTC. The time.Time case must stay
// ahead of fmt.Stringer.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', 2, 64)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
