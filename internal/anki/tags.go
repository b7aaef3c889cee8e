package anki

import (
	"fmt"
	"strings"
)

// TagList holds a note's tags. Anki joins tags with single spaces in the
// notes table, so a tag containing a space would silently split into two on
// import; every mutation validates before touching the list.
type TagList struct {
	tags []string
}

// NewTagList builds a tag list, rejecting any tag containing a space.
func NewTagList(tags ...string) (*TagList, error) {
	tl := &TagList{}
	if err := tl.Add(tags...); err != nil {
		return nil, err
	}
	return tl, nil
}

// Add appends tags to the end of the list. On error the list is unchanged.
func (t *TagList) Add(tags ...string) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	t.tags = append(t.tags, tags...)
	return nil
}

// Insert inserts tags before position i. On error the list is unchanged.
func (t *TagList) Insert(i int, tags ...string) error {
	if i < 0 || i > len(t.tags) {
		return fmt.Errorf("tag index %d out of range [0,%d]", i, len(t.tags))
	}
	if err := validateTags(tags); err != nil {
		return err
	}
	inserted := make([]string, 0, len(t.tags)+len(tags))
	inserted = append(inserted, t.tags[:i]...)
	inserted = append(inserted, tags...)
	inserted = append(inserted, t.tags[i:]...)
	t.tags = inserted
	return nil
}

// RemoveRange deletes the tags in [i, j).
func (t *TagList) RemoveRange(i, j int) error {
	if i < 0 || j > len(t.tags) || i > j {
		return fmt.Errorf("tag range [%d,%d) out of range [0,%d)", i, j, len(t.tags))
	}
	t.tags = append(t.tags[:i], t.tags[j:]...)
	return nil
}

// Strings returns a copy of the tags in order.
func (t *TagList) Strings() []string {
	out := make([]string, len(t.tags))
	copy(out, t.tags)
	return out
}

func (t *TagList) Len() int {
	return len(t.tags)
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if strings.Contains(tag, " ") {
			return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
	}
	return nil
}
