package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/constant"
	"github.com/xeptore/skyjam/gpm"
	"github.com/xeptore/skyjam/gpm/types"
	"github.com/xeptore/skyjam/gpm/webapi"
	"github.com/xeptore/skyjam/iterutil"
	"github.com/xeptore/skyjam/log"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "skyjam",
		Version: constant.Version,
		Metadata: map[string]any{
			"compiled_at": constant.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "Google Play Music mobile-protocol client",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:   "login",
				Usage:  "Login and show the bound playback device",
				Action: login,
			},
			//nolint:exhaustruct
			{
				Name:   "devices",
				Usage:  "List device registrations on the account",
				Action: devices,
			},
			//nolint:exhaustruct
			{
				Name:      "search",
				Usage:     "Search the catalog",
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.IntFlag{Name: "max-results", Value: 10, Usage: "Maximum number of results"},
				},
				Action: search,
			},
			//nolint:exhaustruct
			{
				Name:      "album",
				Usage:     "Fetch a catalog album document",
				ArgsUsage: "<album-id>",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.BoolFlag{Name: "tracks", Usage: "Include the album's track list"},
				},
				Action: album,
			},
			//nolint:exhaustruct
			{
				Name:      "artist",
				Usage:     "Fetch a catalog artist document",
				ArgsUsage: "<artist-id>",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.BoolFlag{Name: "albums", Usage: "Include the artist's albums"},
					//nolint:exhaustruct
					&cli.IntFlag{Name: "top-tracks", Value: 5, Usage: "Number of top tracks"},
					//nolint:exhaustruct
					&cli.IntFlag{Name: "related", Value: 5, Usage: "Number of related artists"},
				},
				Action: artist,
			},
			//nolint:exhaustruct
			{
				Name:      "stream-url",
				Usage:     "Mint a short-lived streaming URL for a track",
				ArgsUsage: "<track-id>",
				Action:    streamURL,
			},
			//nolint:exhaustruct
			{
				Name:      "download",
				Usage:     "Download tracks into the downloads directory",
				ArgsUsage: "<track-id>...",
				Action:    download,
			},
			//nolint:exhaustruct
			{
				Name:   "library",
				Usage:  "List library tracks",
				Action: library,
			},
			//nolint:exhaustruct
			{
				Name:  "playlists",
				Usage: "Playlist commands",
				Commands: []*cli.Command{
					//nolint:exhaustruct
					{Name: "list", Usage: "List playlists", Action: playlistsList},
					//nolint:exhaustruct
					{Name: "entries", Usage: "List entries of all playlists", Action: playlistEntries},
					//nolint:exhaustruct
					{
						Name:      "create",
						Usage:     "Create a playlist",
						ArgsUsage: "<name>",
						Action:    playlistCreate,
					},
					//nolint:exhaustruct
					{
						Name:      "add-track",
						Usage:     "Append a track to a playlist",
						ArgsUsage: "<track-id> <playlist-id>",
						Action:    playlistAddTrack,
					},
					//nolint:exhaustruct
					{
						Name:      "remove-entry",
						Usage:     "Remove an entry from a playlist",
						ArgsUsage: "<entry-id>",
						Action:    playlistRemoveEntry,
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:  "stations",
				Usage: "Radio station commands",
				Commands: []*cli.Command{
					//nolint:exhaustruct
					{Name: "list", Usage: "List stations", Action: stationsList},
					//nolint:exhaustruct
					{
						Name:      "create",
						Usage:     "Create a station from a seed",
						ArgsUsage: "<name> <seed-id> <track|artist|album|genre>",
						Action:    stationCreate,
					},
					//nolint:exhaustruct
					{
						Name:      "tracks",
						Usage:     "Fetch tracks of a station",
						ArgsUsage: "<station-id>",
						Flags: []cli.Flag{
							//nolint:exhaustruct
							&cli.IntFlag{Name: "count", Value: 25, Usage: "Number of tracks"},
						},
						Action: stationTracks,
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:      "playcount",
				Usage:     "Increment a track's play count",
				ArgsUsage: "<track-id>",
				Action:    playCount,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		var exitCode exitCodeError
		if errors.As(err, &exitCode) {
			os.Exit(int(exitCode))
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return "error with exit code: " + strconv.Itoa(int(e))
}

// setup loads env and config, builds the logger and the client, and logs a
// session in. When interactive is set and no credential is configured, the
// user is prompted for an email/password pair.
func setup(
	ctx context.Context,
	cmd *cli.Command,
	interactive bool,
) (zerolog.Logger, *gpm.Client, error) {
	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return logger, nil, fmt.Errorf("load .env file: %v", err)
		}
		logger.Debug().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return logger, nil, fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)
	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	if interactive && conf.GPM.MasterToken == "" && conf.GPM.Password == "" {
		if err := promptCredentials(&conf.GPM); nil != err {
			return logger, nil, err
		}
	}

	client, err := gpm.NewClient(conf.GPM)
	if nil != err {
		return logger, nil, fmt.Errorf("create client: %v", err)
	}

	if err := client.TryLogin(ctx, logger); nil != err {
		if closeErr := client.Close(); nil != closeErr {
			err = errors.Join(err, closeErr)
		}

		if errors.Is(err, gpm.ErrNoUsableDevice) {
			logger.Error().Msg("No PHONE or IOS device is registered on this account. Access the service from a mobile device once, then try again.")
			return logger, nil, exitCodeError(2)
		}

		return logger, nil, fmt.Errorf("login: %w", err)
	}

	return logger, client, nil
}

func promptCredentials(conf *config.GPM) error {
	askOpts := []survey.AskOpt{
		survey.WithValidator(survey.Required),
		survey.WithShowCursor(true),
	}

	if conf.Email == "" {
		prompt := &survey.Input{Message: "Email:"} //nolint:exhaustruct
		if err := survey.AskOne(prompt, &conf.Email, askOpts...); nil != err {
			return fmt.Errorf("failed to ask for email: %v", err)
		}
	}

	prompt := &survey.Password{Message: "Password:"} //nolint:exhaustruct
	askOpts = append(askOpts, survey.WithHideCharacter('*'))
	if err := survey.AskOne(prompt, &conf.Password, askOpts...); nil != err {
		return fmt.Errorf("failed to ask for password: %v", err)
	}

	return nil
}

func login(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, client, err := setup(ctx, cmd, true)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	deviceID, err := client.DeviceID()
	if nil != err {
		return err
	}

	logger.
		Info().
		Str("device_id", deviceID).
		Bool("subscribed", client.Subscribed()).
		Msg("Logged in")

	return nil
}

func devices(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	settings, err := client.Settings(ctx, logger)
	if nil != err {
		return fmt.Errorf("load settings: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Type", "Usable"})
	t.AppendRows(iterutil.Map(settings.Devices, func(_ int, d types.Device) table.Row {
		return table.Row{d.ID, d.Type, d.Mobile()}
	}))
	t.Render()

	return nil
}

func search(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text := cmd.Args().First()
	if text == "" {
		return errors.New("search text is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	results, err := client.API().Search(ctx, text, cmd.Int("max-results"))
	if nil != err {
		return fmt.Errorf("search: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Track ID", "Title", "Artist", "Album"})
	for _, entry := range results.Entries {
		if entry.Track == nil {
			continue
		}
		t.AppendRow(table.Row{entry.Track.StoreID, entry.Track.Title, entry.Track.Artist, entry.Track.Album})
	}
	t.Render()

	return nil
}

func album(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := cmd.Args().First()
	if id == "" {
		return errors.New("album id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	raw, err := client.Album(ctx, id, cmd.Bool("tracks"))
	if nil != err {
		return fmt.Errorf("fetch album: %w", err)
	}

	fmt.Println(string(raw))

	return nil
}

func artist(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := cmd.Args().First()
	if id == "" {
		return errors.New("artist id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	raw, err := client.API().Artist(ctx, id, cmd.Bool("albums"), cmd.Int("top-tracks"), cmd.Int("related"))
	if nil != err {
		return fmt.Errorf("fetch artist: %w", err)
	}

	fmt.Println(string(raw))

	return nil
}

func streamURL(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := cmd.Args().First()
	if id == "" {
		return errors.New("track id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	u, err := client.StreamURL(ctx, logger, id)
	if nil != err {
		return fmt.Errorf("mint stream URL: %w", err)
	}

	fmt.Println(u)

	return nil
}

func download(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return errors.New("at least one track id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	for _, id := range ids {
		fileName, err := client.TryDownload(ctx, logger, id)
		if nil != err {
			return fmt.Errorf("download track %s: %w", id, err)
		}
		logger.Info().Str("track_id", id).Str("file", fileName).Msg("Downloaded")
	}

	return nil
}

func library(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "Artist", "Album"})

	var pageToken string
	for {
		page, err := client.API().TrackFeed(ctx, pageToken)
		if nil != err {
			return fmt.Errorf("list library: %w", err)
		}

		t.AppendRows(iterutil.Map(page.Data.Items, func(_ int, tr types.Track) table.Row {
			return table.Row{tr.ID, tr.Title, tr.Artist, tr.Album}
		}))

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	t.Render()

	return nil
}

func playlistsList(ctx context.Context, cmd *cli.Command) error {
	return rawJSONCommand(ctx, cmd, "list playlists", func(ctx context.Context, client *gpm.Client) (json.RawMessage, error) {
		return client.API().Playlists(ctx)
	})
}

func playlistEntries(ctx context.Context, cmd *cli.Command) error {
	return rawJSONCommand(ctx, cmd, "list playlist entries", func(ctx context.Context, client *gpm.Client) (json.RawMessage, error) {
		return client.API().PlaylistEntries(ctx)
	})
}

func playlistCreate(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := cmd.Args().First()
	if name == "" {
		return errors.New("playlist name is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	id, err := client.API().CreatePlaylist(ctx, name)
	if nil != err {
		return fmt.Errorf("create playlist: %w", err)
	}

	logger.Info().Str("playlist_id", id).Msg("Playlist created")

	return nil
}

func playlistAddTrack(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trackID, playlistID := cmd.Args().Get(0), cmd.Args().Get(1)
	if trackID == "" || playlistID == "" {
		return errors.New("track id and playlist id are required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	entryID, err := client.API().AddPlaylistEntry(ctx, trackID, playlistID)
	if nil != err {
		return fmt.Errorf("add playlist entry: %w", err)
	}

	logger.Info().Str("entry_id", entryID).Msg("Track added to playlist")

	return nil
}

func playlistRemoveEntry(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entryID := cmd.Args().First()
	if entryID == "" {
		return errors.New("entry id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	if err := client.API().RemovePlaylistEntry(ctx, entryID); nil != err {
		return fmt.Errorf("remove playlist entry: %w", err)
	}

	logger.Info().Str("entry_id", entryID).Msg("Playlist entry removed")

	return nil
}

func stationsList(ctx context.Context, cmd *cli.Command) error {
	return rawJSONCommand(ctx, cmd, "list stations", func(ctx context.Context, client *gpm.Client) (json.RawMessage, error) {
		return client.API().Stations(ctx)
	})
}

func stationCreate(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name, seedID, kind := cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2)
	if name == "" || seedID == "" || kind == "" {
		return errors.New("station name, seed id, and seed kind are required")
	}

	seed, err := webapi.NewStationSeed(seedID, kind)
	if nil != err {
		return err
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	id, err := client.API().CreateStation(ctx, name, seed)
	if nil != err {
		return fmt.Errorf("create station: %w", err)
	}

	logger.Info().Str("station_id", id).Msg("Station created")

	return nil
}

func stationTracks(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stationID := cmd.Args().First()
	if stationID == "" {
		return errors.New("station id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	raw, err := client.API().StationTracks(ctx, stationID, cmd.Int("count"))
	if nil != err {
		return fmt.Errorf("fetch station tracks: %w", err)
	}

	fmt.Println(string(raw))

	return nil
}

func playCount(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := cmd.Args().First()
	if id == "" {
		return errors.New("track id is required")
	}

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	if err := client.API().IncrementPlayCount(ctx, id); nil != err {
		return fmt.Errorf("increment play count: %w", err)
	}

	logger.Info().Str("track_id", id).Msg("Play count incremented")

	return nil
}

func rawJSONCommand(
	ctx context.Context,
	cmd *cli.Command,
	what string,
	fn func(ctx context.Context, client *gpm.Client) (json.RawMessage, error),
) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, client, err := setup(ctx, cmd, false)
	if nil != err {
		return err
	}
	defer closeClient(logger, client)

	raw, err := fn(ctx, client)
	if nil != err {
		return fmt.Errorf("%s: %w", what, err)
	}

	fmt.Println(string(raw))

	return nil
}

func closeClient(logger zerolog.Logger, client *gpm.Client) {
	if err := client.Close(); nil != err {
		logger.Error().Err(err).Msg("Failed to close client")
	}
}
