package models

import "strings"

// SocialPlatforms lists the keys accepted in About.Social.
var SocialPlatforms = []string{"youtube", "github", "instagram", "twitter", "linkedin", "email"}

type About struct {
	Text   string            `json:"text"`
	Email  string            `json:"email"`
	Social map[string]string `json:"social"`
}

// DefaultAbout is the about document before the admin has saved one.
func DefaultAbout() About {
	return About{Social: map[string]string{}}
}

// NormalizeSocial keeps only known platforms with non-empty values.
func NormalizeSocial(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for _, platform := range SocialPlatforms {
		value := strings.TrimSpace(in[platform])
		if value != "" {
			out[platform] = value
		}
	}
	return out
}

// AdminFile is the bootstrap record of the admin secret.
type AdminFile struct {
	Password string `json:"password"`
}
