package detailpage

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoPair is returned when text holds fewer than two numbers.
var ErrNoPair = errors.New("detailpage: fewer than two numeric tokens")

// ExtractPair returns the first two numbers found among the whitespace
// separated tokens of text. A comma is accepted as decimal separator. The
// magnitude of the numbers is not checked.
func ExtractPair(text string) (first, second float64, err error) {
	var nums []float64
	for _, tok := range strings.Fields(text) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		nums = append(nums, v)
		if len(nums) == 2 {
			return nums[0], nums[1], nil
		}
	}
	return 0, 0, ErrNoPair
}
