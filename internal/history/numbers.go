package history

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseNumberList normalizes a stored number list into a canonical
// []int. Two legacy encodings survive in historical rows: JSON array
// text ("[5, 12, 19]") and a delimited/bracketed textual format
// ("{5,12,19}" or "5, 12, 19"). JSON arrays are the canonical
// encoding going forward; everything else is read-only migration
// input.
func ParseNumberList(raw string) ([]int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty number list")
	}

	if strings.HasPrefix(s, "[") {
		var nums []int
		if err := json.Unmarshal([]byte(s), &nums); err != nil {
			return nil, fmt.Errorf("invalid JSON number list %q: %w", raw, err)
		}
		if len(nums) == 0 {
			return nil, fmt.Errorf("empty number list %q", raw)
		}
		return nums, nil
	}

	// Bracketed/delimited legacy format: strip the wrapping braces or
	// parens, then split on commas (falling back to whitespace).
	s = strings.Trim(s, "{}()")
	fields := strings.Split(s, ",")
	if len(fields) == 1 {
		fields = strings.Fields(s)
	}

	nums := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in list %q: %w", f, raw, err)
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("no numbers in list %q", raw)
	}
	return nums, nil
}

// FormatNumberList renders the canonical persistence encoding.
func FormatNumberList(nums []int) string {
	if len(nums) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(nums)
	return string(b)
}

// validateNumbers checks uniqueness and range for a parsed list.
func validateNumbers(nums []int, maxNumber int) error {
	seen := make(map[int]bool, len(nums))
	for _, n := range nums {
		if n < 1 || n > maxNumber {
			return fmt.Errorf("number %d outside valid range 1-%d", n, maxNumber)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}
