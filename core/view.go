package core

// SectionView is the outward JSON form of a section. It never carries the
// embedding.
type SectionView struct {
	Id          ID     `json:"id"`
	SectionNo   string `json:"sectionNo"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Punishment  string `json:"punishment"`
}

// NewSectionView converts a section to its outward form.
func NewSectionView(s *Section) SectionView {
	return SectionView{
		Id:          s.Id,
		SectionNo:   s.SectionNo,
		Title:       s.Title,
		Description: s.Description,
		Punishment:  s.Punishment,
	}
}

// NewSectionViews converts sections, always returning a non-nil slice.
func NewSectionViews(sections []*Section) []SectionView {
	views := make([]SectionView, 0, len(sections))
	for _, s := range sections {
		views = append(views, NewSectionView(s))
	}
	return views
}
