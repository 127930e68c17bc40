package content

import (
	"fmt"
	"time"
)

var chinaTime = time.FixedZone("CST", 8*60*60)

// TimeAgo renders a relative time for recent timestamps and a full date
// otherwise. Zero renders empty.
func TimeAgo(ts int64, now time.Time) string {
	if ts <= 0 {
		return ""
	}
	diff := now.Unix() - ts
	switch {
	case diff < 60:
		return "刚刚"
	case diff < 3600:
		return fmt.Sprintf("%d分钟前", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%d小时前", diff/3600)
	}
	return FormatDate(ts)
}

// FormatDate renders seconds since epoch as YYYY/MM/DD HH:mm in China time.
func FormatDate(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).In(chinaTime).Format("2006/01/02 15:04")
}
