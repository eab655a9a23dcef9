package reports

import "errors"

var ErrRangeRequired = errors.New("start date and end date are required")
