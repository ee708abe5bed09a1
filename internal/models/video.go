package models

import "time"

// VideoRecord is a single feed entry collected for today's run
type VideoRecord struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	VideoID       string    `json:"video_id"`
	Published     time.Time `json:"published"`
	Channel       string    `json:"channel"`
	Caption       string    `json:"transcript,omitempty"`
	CaptionLength int       `json:"transcript_length,omitempty"`
}

// ChannelConfig identifies a channel to poll. ChannelID may be empty until resolved.
type ChannelConfig struct {
	Handle    string `yaml:"handle" json:"handle"`
	Name      string `yaml:"name" json:"name"`
	ChannelID string `yaml:"channel_id" json:"channel_id,omitempty"`
}

// VideoURLs returns the watch URLs of the given records in order
func VideoURLs(videos []VideoRecord) []string {
	urls := make([]string, 0, len(videos))
	for _, v := range videos {
		urls = append(urls, v.URL)
	}
	return urls
}

// CaptionFileName is the on-disk name of a saved caption for videoID
func CaptionFileName(videoID string) string {
	return "transcript_" + videoID + ".txt"
}
