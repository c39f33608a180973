package enums

import "fmt"

// ComplaintStatus mirrors the public_complaints.status column.
type ComplaintStatus string

const (
	ComplaintStatusReceived   ComplaintStatus = "접수"
	ComplaintStatusInProgress ComplaintStatus = "처리 중"
	ComplaintStatusCompleted  ComplaintStatus = "완료"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusReceived,
	ComplaintStatusInProgress,
	ComplaintStatusCompleted,
}

// String implements fmt.Stringer.
func (c ComplaintStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComplaintStatus.
func (c ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseComplaintStatus converts raw input into a ComplaintStatus. The app
// sometimes sends "처리중" without the space.
func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	if value == "처리중" {
		return ComplaintStatusInProgress, nil
	}
	for _, candidate := range validComplaintStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complaint status %q", value)
}
