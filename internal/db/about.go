package db

import (
	"fmt"

	"github.com/NayabMushtaq/NayMish-blog/internal/models"
)

func (s *Store) GetAbout() models.About {
	about := s.about.Load()
	if about.Social == nil {
		about.Social = map[string]string{}
	}
	return about
}

// SetAbout replaces the about document. Social links are not merged with
// the previous value.
func (s *Store) SetAbout(in models.About) (models.About, error) {
	about := models.About{
		Text:   in.Text,
		Email:  in.Email,
		Social: models.NormalizeSocial(in.Social),
	}
	if err := s.about.Save(about); err != nil {
		return models.About{}, fmt.Errorf("set about: %w", err)
	}
	return about, nil
}
