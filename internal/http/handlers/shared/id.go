package shared

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexibleID 兼容字符串与数字两种写法的标识符
type FlexibleID string

// UnmarshalJSON 接受 "12" 或 12
func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

// String 去除首尾空白后的字符串
func (id FlexibleID) String() string {
	return strings.TrimSpace(string(id))
}

// FirstNonEmpty 返回第一个非空标识
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
