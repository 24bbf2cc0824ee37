// Command netcanv is the NetCanv peer CLI: it hosts a new room or joins
// an existing one, then keeps a session alive against the relay until
// interrupted. There is no renderer in this headless build; it exists
// to exercise the peer protocol end to end, the way the teacher's
// cmd/quic_send and cmd/quic_recv exercise the file-transfer protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/quantarax/netcanv/internal/client"
	"github.com/quantarax/netcanv/internal/config"
	"github.com/quantarax/netcanv/internal/observability"
	"github.com/quantarax/netcanv/internal/session"
	"github.com/quantarax/netcanv/internal/validation"
	"github.com/quantarax/netcanv/internal/wire"
)

var (
	nicknameFlag string
	relayFlag    string
	configFlag   string
	projectFlag  string
)

func main() {
	root := &cobra.Command{
		Use:   "netcanv",
		Short: "Join or host a NetCanv collaborative canvas room",
	}
	root.PersistentFlags().StringVar(&nicknameFlag, "nickname", "", "display name shown to mates (overrides the saved config)")
	root.PersistentFlags().StringVar(&relayFlag, "relay", "", "relay address, host:port (overrides the saved config)")
	root.PersistentFlags().StringVar(&configFlag, "config", "", "path to the user config TOML file (defaults to the OS config dir)")
	root.PersistentFlags().StringVar(&projectFlag, "project", "", "a .netcanv project directory to load on start and save on exit")

	root.AddCommand(hostRoomCommand(), joinRoomCommand(), exportFlatCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func hostRoomCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "host-room",
		Short: "Host a new room and print its room code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, func(ctx context.Context, r *client.Runner) error {
				return r.Host(ctx)
			})
		},
	}
}

func joinRoomCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join-room [room-code]",
		Short: "Join an existing room by its 6-character code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateRoomID(args[0]); err != nil {
				return err
			}
			roomID, err := wire.ParseRoomID(args[0])
			if err != nil {
				return err
			}
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, func(ctx context.Context, r *client.Runner) error {
				return r.Join(ctx, roomID)
			})
		},
	}
}

// resolveConfig loads the saved user config, applying --nickname/--relay
// overrides without persisting them.
func resolveConfig() (*config.UserConfig, error) {
	path := configFlag
	if path == "" {
		var err error
		path, err = config.DefaultUserConfigPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadUserConfig(path)
	if err != nil {
		return nil, fmt.Errorf("netcanv: load config: %w", err)
	}
	if nicknameFlag != "" {
		cfg.Nickname = nicknameFlag
	}
	if relayFlag != "" {
		cfg.RelayHost = relayFlag
	}
	if err := validation.ValidateNickname(cfg.Nickname); err != nil {
		return nil, err
	}
	if err := validation.ValidateAddr(cfg.RelayHost); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run dials the relay, builds a session and runner, and drives
// startFn until the process is interrupted or the connection drops.
func run(ctx context.Context, cfg *config.UserConfig, startFn func(context.Context, *client.Runner) error) error {
	log := observability.NewLogger("netcanv", "dev", os.Stderr)
	metrics := observability.NewMetrics()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "connecting to relay at %s...\n", cfg.RelayHost)
	conn, err := client.Dial(ctx, cfg.RelayHost)
	if err != nil {
		return fmt.Errorf("netcanv: %w", err)
	}
	defer conn.Close()

	sess := session.New(cfg.Nickname, log, metrics)
	runner := client.NewRunner(conn, sess, log)

	if projectFlag != "" {
		if err := loadProject(sess, projectFlag); err != nil {
			return fmt.Errorf("netcanv: load project: %w", err)
		}
		fmt.Fprintf(os.Stderr, "loaded project %s\n", projectFlag)
	}

	go reportStatus(ctx, sess)

	runErr := startFn(ctx, runner)

	if projectFlag != "" {
		if err := saveProject(sess, projectFlag); err != nil {
			return fmt.Errorf("netcanv: save project: %w", err)
		}
		fmt.Fprintf(os.Stderr, "saved project %s\n", projectFlag)
	}

	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("netcanv: %w", runErr)
	}
	fmt.Fprintln(os.Stderr, "disconnected")
	return nil
}

func exportFlatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export-flat <project-dir> <output-file>",
		Short: "Flatten a saved project's chunks into a single PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportFlatPNG(args[0], args[1])
		},
	}
}

// reportStatus prints a short status line once the session settles into
// a room and periodically thereafter, including a human-readable tally
// of canvas data held locally.
func reportStatus(ctx context.Context, sess *session.Session) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sess.State() != session.StateInRoom {
				continue
			}
			size := approximateCanvasBytes(sess)
			fmt.Fprintf(os.Stderr, "room %s: %d mate(s), ~%s of canvas data cached, %s uptime\n",
				sess.RoomID, sess.Mates.Count(), humanize.Bytes(size), sess.Uptime().Round(time.Second))
		}
	}
}

func approximateCanvasBytes(sess *session.Session) uint64 {
	var total uint64
	for _, coord := range sess.Canvas.ChunkPositions() {
		enc, ok, err := sess.Canvas.NetworkData(coord)
		if err != nil || !ok {
			continue
		}
		total += uint64(len(enc.PNG))
		if enc.Lossy != nil {
			total += uint64(len(enc.Lossy))
		}
	}
	return total
}
