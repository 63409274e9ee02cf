package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// FormID composes the canonical form identifier from its lineage:
// "<assessmentID>.<grade>.formNN".
func FormID(assessmentID, grade string, number int) string {
	return fmt.Sprintf("%s.%s.form%02d", assessmentID, grade, number)
}

// ItemID composes the canonical item identifier from its form and
// 1-based sequence number: "<formID>.itemNNN".
func ItemID(formID string, sequence int) string {
	return fmt.Sprintf("%s.item%03d", formID, sequence)
}

// ParseItemSequence extracts the sequence number from an item id.
// The id must end in an ".itemNNN" segment.
func ParseItemSequence(itemID string) (int, error) {
	idx := strings.LastIndex(itemID, ".item")
	if idx < 0 {
		return 0, fmt.Errorf("item id %q has no item segment", itemID)
	}
	n, err := strconv.Atoi(itemID[idx+len(".item"):])
	if err != nil {
		return 0, fmt.Errorf("item id %q has non-numeric sequence", itemID)
	}
	return n, nil
}
