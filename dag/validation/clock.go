package validation

import "time"

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
