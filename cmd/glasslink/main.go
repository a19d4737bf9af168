package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/rkwon17/glassLink/pkg/device"
	"github.com/rkwon17/glassLink/pkg/discovery"
	"github.com/rkwon17/glassLink/pkg/link"
	"github.com/rkwon17/glassLink/pkg/protocol"
	"github.com/rkwon17/glassLink/pkg/transfer"
	"github.com/rkwon17/glassLink/pkg/ui"
)

func main() {
	f, _ := os.OpenFile("debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to close log file:", err)
		}
	}()
	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))

	cmd := &cobra.Command{
		Use:   "glasslink",
		Short: "Companion-device link protocol: envelope, chunked transfer, supervision",
	}
	cmd.AddCommand(demoCommand())
	cmd.AddCommand(discoverCommand())
	cmd.AddCommand(announceCommand())

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

func demoCommand() *cobra.Command {
	var photoPath string
	var photoSize int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a phone and glasses pair over an in-memory link",
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, err := loadPhoto(photoPath, photoSize)
			if err != nil {
				return err
			}

			phoneSide, glassesSide := link.Pipe()
			phone, err := link.New(link.DefaultConfig(), phoneSide, "phone")
			if err != nil {
				return err
			}
			glasses, err := link.New(link.DefaultConfig(), glassesSide, "glasses")
			if err != nil {
				return err
			}
			phone.Start()
			glasses.Start()
			defer phone.Stop()
			defer glasses.Stop()

			if err := phone.Connect(cmd.Context()); err != nil {
				return fmt.Errorf("handshake failed: %w", err)
			}

			go runPhoneScript(cmd.Context(), phone, photo)

			p := tea.NewProgram(ui.NewMonitor(glasses))
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&photoPath, "photo", "", "Image file to transfer (generated pattern if omitted)")
	cmd.Flags().IntVar(&photoSize, "size", 3*transfer.DefaultChunkSize+321, "Size of the generated photo payload")
	return cmd
}

// runPhoneScript plays the handheld side: some display text, a short voice
// exchange, then the photo transfer.
func runPhoneScript(ctx context.Context, phone *link.Link, photo []byte) {
	steps := []*protocol.Message{
		protocol.NewDisplayText("connected to phone"),
		protocol.NewVoiceStart(),
		protocol.NewVoiceData([]byte("pretend this is opus audio")),
		protocol.NewVoiceEnd(),
		protocol.NewAIResponse("It looks like a nice day outside."),
	}
	for _, msg := range steps {
		if err := phone.SendMessage(msg); err != nil {
			slog.Error("Demo message failed", "type", msg.Type.String(), "error", err)
			return
		}
		time.Sleep(300 * time.Millisecond)
	}

	if err := phone.SendPhoto(ctx, photo); err != nil {
		slog.Error("Demo photo transfer failed", "error", err)
	}
}

// loadPhoto reads and validates the image to send, or fabricates a
// deterministic payload when no file is given.
func loadPhoto(path string, size int) ([]byte, error) {
	if path == "" {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i % 251)
		}
		return payload, nil
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot inspect %s: %w", path, err)
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%s is %s, not an image", path, mime.String())
	}
	return os.ReadFile(path)
}

func discoverCommand() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse for companion devices on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			adapter := &discovery.MDNSAdapter{}
			results := adapter.Discover(ctx, discovery.DefaultServiceType+"."+discovery.DefaultDomain+".")

			var last []discovery.ServiceInfo
			for result := range results {
				if result.Error != nil {
					if errors.Is(result.Error, context.DeadlineExceeded) {
						break
					}
					return result.Error
				}
				last = result.Services
			}

			if len(last) == 0 {
				fmt.Println("no companion devices found")
				return nil
			}
			for _, svc := range last {
				d := svc.Device()
				fmt.Printf("%-20s %-8s %s:%d\n", d.Name, d.Role, d.Address, svc.Port)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "How long to browse")
	return cmd
}

func announceCommand() *cobra.Command {
	var name string
	var port int
	var asGlasses bool

	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Announce this device to companions on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			role := device.RolePhone
			if asGlasses {
				role = device.RoleGlasses
			}
			adapter := &discovery.MDNSAdapter{}
			fmt.Printf("announcing %s (%s) on port %d, ctrl+c to stop\n", name, role, port)
			return adapter.Announce(cmd.Context(), discovery.ServiceInfo{
				Name:   name,
				Type:   discovery.DefaultServiceType,
				Domain: discovery.DefaultDomain,
				Port:   port,
				Role:   role,
			})
		},
	}

	hostname, _ := os.Hostname()
	cmd.Flags().StringVar(&name, "name", hostname, "Announced device name")
	cmd.Flags().IntVar(&port, "port", 9021, "Announced port")
	cmd.Flags().BoolVar(&asGlasses, "glasses", false, "Announce as the glasses side")
	return cmd
}
