package simulate

import (
	"strconv"

	"github.com/okian/tally/internal/domain/model"
)

func mustInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		panic(err)
	}
	return v
}

func mustUserID(s string) model.UserID {
	return model.UserID(mustInt(s))
}
