package types

// Track is the subset of a catalog track document the client displays and
// embeds into downloaded files.
type Track struct {
	ID             string `json:"id"`
	Nid            string `json:"nid"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Album          string `json:"album"`
	AlbumArtist    string `json:"albumArtist"`
	Composer       string `json:"composer"`
	TrackNumber    int    `json:"trackNumber"`
	DiscNumber     int    `json:"discNumber"`
	Year           int    `json:"year"`
	DurationMillis string `json:"durationMillis"`
	StoreID        string `json:"storeId"`
}

// SearchEntry is one hit of a catalog search. Only track hits carry a Track.
type SearchEntry struct {
	Type  string `json:"type"`
	Track *Track `json:"track"`
}

type SearchResults struct {
	Entries []SearchEntry `json:"entries"`
}

// TrackPage is one page of the library track feed.
type TrackPage struct {
	NextPageToken string `json:"nextPageToken"`
	Data          struct {
		Items []Track `json:"items"`
	} `json:"data"`
}
