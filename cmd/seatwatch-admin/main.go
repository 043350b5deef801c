// ABOUTME: Admin CLI for seatwatch room and user management
// ABOUTME: Operates directly on the SQLite database configured for the server

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"

	"github.com/quiethall/seatwatch/internal/config"
	"github.com/quiethall/seatwatch/internal/store"
)

const banner = `
                _                 _       _                     _           _
 ___  ___  __ _| |___      ____ _| |_ ___| |__         __ _  __| |_ __ ___ (_)_ __
/ __|/ _ \/ _' | __\ \ /\ / / _' | __/ __| '_ \ _____ / _' |/ _' | '_ ' _ \| | '_ \
\__ \  __/ (_| | |_ \ V  V / (_| | || (__| | | |_____| (_| | (_| | | | | | | | | | |
|___/\___|\__,_|\__| \_/\_/ \__,_|\__\___|_| |_|      \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "rooms":
		err = cmdRooms(ctx, args)
	case "images":
		err = cmdImages(ctx, args)
	case "users":
		err = cmdUsers(ctx, args)
	case "seed":
		err = cmdSeed(ctx, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: seatwatch-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  rooms                          List rooms and seat utilization")
	fmt.Println("  rooms list                     List rooms and seat utilization")
	fmt.Println("  rooms set <room> <vacant> <total>  Create or update a room's seat counts")
	fmt.Println("  images put <room> <file>       Attach an image to a room")
	fmt.Println("  users                          List registered users")
	fmt.Println("  users list                     List registered users")
	fmt.Println("  seed <file.toml>               Load rooms and images from a TOML file")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SEATWATCH_CONFIG               Config file path (default: ~/.config/seatwatch/seatwatch.yaml)")
	fmt.Println()
}

// getConfigPath mirrors the server's config resolution.
func getConfigPath() string {
	if envPath := os.Getenv("SEATWATCH_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "seatwatch.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "seatwatch", "seatwatch.yaml")
}

// openStore loads the config and opens the SQLite store directly
func openStore() (*store.SQLiteStore, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return s, nil
}

func cmdRooms(ctx context.Context, args []string) error {
	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdRoomsList(ctx)
	case "set":
		return cmdRoomsSet(ctx, args)
	default:
		return fmt.Errorf("unknown rooms subcommand: %s (use list, set)", subcmd)
	}
}

func cmdRoomsList(ctx context.Context) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rooms, err := s.ListUtilization(ctx)
	if err != nil {
		return fmt.Errorf("listing rooms: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Study Rooms")
	cyan.Println("  -----------")

	if len(rooms) == 0 {
		fmt.Println("  (no rooms)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ROOM\tVACANT\tTOTAL\tUPDATED")
	fmt.Fprintln(w, "  ----\t------\t-----\t-------")

	for _, r := range rooms {
		fmt.Fprintf(w, "  %s\t%d\t%d\t%s\n",
			r.StudyRoom, r.VacantSeats, r.TotalSeats, r.UpdatedAt.Format("Jan 02 15:04"))
	}
	w.Flush()
	fmt.Println()

	return nil
}

func cmdRoomsSet(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: seatwatch-admin rooms set <room> <vacant> <total>")
	}

	room := args[0]
	vacant, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid vacant count %q: %w", args[1], err)
	}
	total, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid total count %q: %w", args[2], err)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.UpsertRoomSeats(ctx, room, vacant, total); err != nil {
		if errors.Is(err, store.ErrInvalidSeatCount) {
			return fmt.Errorf("seat counts must satisfy 0 <= vacant <= total")
		}
		return fmt.Errorf("setting room seats: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ %s: %d vacant of %d total\n", room, vacant, total)
	return nil
}

func cmdImages(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: seatwatch-admin images put <room> <file>")
	}

	switch args[0] {
	case "put", "add":
		return cmdImagesPut(ctx, args[1:])
	default:
		return fmt.Errorf("unknown images subcommand: %s (use put)", args[0])
	}
}

func cmdImagesPut(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: seatwatch-admin images put <room> <file>")
	}

	room := args[0]
	path := args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image file: %w", err)
	}
	contentType := http.DetectContentType(data)

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SaveImage(ctx, room, data, contentType); err != nil {
		if errors.Is(err, store.ErrImageExists) {
			return fmt.Errorf("room %s already has an image", room)
		}
		return fmt.Errorf("saving image: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ %s: %s (%d bytes, %s)\n", room, filepath.Base(path), len(data), contentType)
	return nil
}

func cmdUsers(ctx context.Context, args []string) error {
	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
	}

	switch subcmd {
	case "list", "ls":
		return cmdUsersList(ctx)
	default:
		return fmt.Errorf("unknown users subcommand: %s (use list)", subcmd)
	}
}

func cmdUsersList(ctx context.Context) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Registered Users")
	cyan.Println("  ----------------")

	if len(users) == 0 {
		fmt.Println("  (no users)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  USERNAME\tCREATED")
	fmt.Fprintln(w, "  --------\t-------")

	for _, u := range users {
		fmt.Fprintf(w, "  %s\t%s\n", u.Username, u.CreatedAt.Format("Jan 02 15:04"))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// seedFile is the TOML schema for the seed command.
type seedFile struct {
	Rooms []seedRoom `toml:"room"`
}

type seedRoom struct {
	Name   string `toml:"name"`
	Vacant int    `toml:"vacant"`
	Total  int    `toml:"total"`
	Image  string `toml:"image"`
}

func cmdSeed(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: seatwatch-admin seed <file.toml>")
	}

	var seed seedFile
	if _, err := toml.DecodeFile(args[0], &seed); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}
	if len(seed.Rooms) == 0 {
		return fmt.Errorf("seed file has no [[room]] entries")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	baseDir := filepath.Dir(args[0])
	start := time.Now()

	for _, r := range seed.Rooms {
		if r.Name == "" {
			return fmt.Errorf("seed entry missing name")
		}

		if err := s.UpsertRoomSeats(ctx, r.Name, r.Vacant, r.Total); err != nil {
			return fmt.Errorf("seeding room %s: %w", r.Name, err)
		}
		green.Printf("  ✓ %s: %d vacant of %d total\n", r.Name, r.Vacant, r.Total)

		if r.Image == "" {
			continue
		}

		// Image paths are relative to the seed file
		imgPath := r.Image
		if !filepath.IsAbs(imgPath) {
			imgPath = filepath.Join(baseDir, imgPath)
		}
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return fmt.Errorf("reading image for room %s: %w", r.Name, err)
		}

		err = s.SaveImage(ctx, r.Name, data, http.DetectContentType(data))
		switch {
		case errors.Is(err, store.ErrImageExists):
			yellow.Printf("    image for %s already exists, skipped\n", r.Name)
		case err != nil:
			return fmt.Errorf("saving image for room %s: %w", r.Name, err)
		}
	}

	fmt.Printf("\nSeeded %d room(s) in %s\n", len(seed.Rooms), time.Since(start).Round(time.Millisecond))
	return nil
}
