package model

// Guild 服务器（群组）记录
type Guild struct {
	ID              int64  `json:"id,string"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	VanityURL       string `json:"vanity_url"`
	Icon            string `json:"icon"`
	Banner          string `json:"banner"`
	OwnerID         int64  `json:"owner_id,string"`
	NSFW            bool   `json:"nsfw"`
	Large           bool   `json:"large"`
	PreferredLocale string `json:"preferred_locale"`
	Permissions     int64  `json:"permissions"`
	Splash          string `json:"splash"`
}
