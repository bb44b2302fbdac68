package dtos

import "github.com/noridevx/wedding-web/internal/models"

type PhotosResponse struct {
	Photos         []*models.Photo `json:"photos"`
	Page           int             `json:"page"`
	PageSize       int             `json:"page_size"`
	HasMore        bool            `json:"has_more"`
	IsLoading      bool            `json:"is_loading"`
	IsRefreshing   bool            `json:"is_refreshing"`
	OnlyChallenges bool            `json:"only_challenges"`
}
