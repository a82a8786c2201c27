package enums

import "fmt"

// LinkStatus describes the directed relation between two linked posts.
type LinkStatus string

const (
	LinkStatusBlocks       LinkStatus = "blocks"
	LinkStatusBlockedBy    LinkStatus = "blocked by"
	LinkStatusDuplicates   LinkStatus = "duplicates"
	LinkStatusDuplicatedBy LinkStatus = "duplicated by"
	LinkStatusCauses       LinkStatus = "causes"
	LinkStatusCausedBy     LinkStatus = "caused by"
	LinkStatusRelatesTo    LinkStatus = "relates to"
)

var validLinkStatuses = []LinkStatus{
	LinkStatusBlocks,
	LinkStatusBlockedBy,
	LinkStatusDuplicates,
	LinkStatusDuplicatedBy,
	LinkStatusCauses,
	LinkStatusCausedBy,
	LinkStatusRelatesTo,
}

// reverseLinkStatus maps each status to the one stored on the opposite post.
// "relates to" is self-inverse.
var reverseLinkStatus = map[LinkStatus]LinkStatus{
	LinkStatusBlocks:       LinkStatusBlockedBy,
	LinkStatusBlockedBy:    LinkStatusBlocks,
	LinkStatusDuplicates:   LinkStatusDuplicatedBy,
	LinkStatusDuplicatedBy: LinkStatusDuplicates,
	LinkStatusCauses:       LinkStatusCausedBy,
	LinkStatusCausedBy:     LinkStatusCauses,
	LinkStatusRelatesTo:    LinkStatusRelatesTo,
}

func (s LinkStatus) IsValid() bool {
	for _, candidate := range validLinkStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Reverse returns the status the mirrored link on the other post carries.
func (s LinkStatus) Reverse() LinkStatus {
	if rev, ok := reverseLinkStatus[s]; ok {
		return rev
	}
	return s
}

func ParseLinkStatus(value string) (LinkStatus, error) {
	for _, candidate := range validLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link status %q", value)
}
