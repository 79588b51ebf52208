package twitter

// Minimal Twitter API v2 payload types, limited to the fields the pipeline
// actually reads.

type Tweet struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	AuthorID    string `json:"author_id"`
	CreatedAt   string `json:"created_at,omitempty"`
	Attachments struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments,omitempty"`
}

type Media struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	PublicMetrics   struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

// SearchResult is the response of GET /2/tweets/search/recent
type SearchResult struct {
	Data     []Tweet `json:"data"`
	Includes struct {
		Media []Media `json:"media"`
		Users []User  `json:"users"`
	} `json:"includes"`
	Meta struct {
		NewestID    string `json:"newest_id"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

// UserByID resolves an expanded author from the includes block
func (r *SearchResult) UserByID(id string) *User {
	for i := range r.Includes.Users {
		if r.Includes.Users[i].ID == id {
			return &r.Includes.Users[i]
		}
	}
	return nil
}

// PhotoURL returns the URL of the first attached photo, or empty string
func (r *SearchResult) PhotoURL(tweet *Tweet) string {
	for _, key := range tweet.Attachments.MediaKeys {
		for _, media := range r.Includes.Media {
			if media.MediaKey == key && media.Type == "photo" {
				return media.URL
			}
		}
	}
	return ""
}
