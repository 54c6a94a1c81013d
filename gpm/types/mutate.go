package types

// Station seed types understood by the radio endpoints.
const (
	SeedTypeLibraryTrack = 1
	SeedTypeCatalogTrack = 2
	SeedTypeArtist       = 3
	SeedTypeAlbum        = 4
	SeedTypeGenre        = 5
)

// StationSeed identifies what a new station is grown from. Exactly one id
// field is set, matching SeedType.
type StationSeed struct {
	TrackID  string `json:"trackId,omitempty"`
	ArtistID string `json:"artistId,omitempty"`
	AlbumID  string `json:"albumId,omitempty"`
	GenreID  string `json:"genreId,omitempty"`
	SeedType int    `json:"seedType"`
}
