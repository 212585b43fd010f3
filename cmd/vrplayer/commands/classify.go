package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/decoder"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
	"github.com/spf13/cobra"
)

var classifyFormat string

var classifyCmd = &cobra.Command{
	Use:   "classify FILE",
	Short: "Detect the spatial layout of a file",
	Long: `Probe FILE and print its dimensions, the detected layout and the
projection the player would pick by default. Videos are probed with
ffprobe; anything ffprobe rejects is tried as a still image.`,
	Example: `  vrplayer classify concert.mp4
  vrplayer classify pano.jpg --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "text", "output format (text or json)")
}

type classification struct {
	File           string `json:"file"`
	Video          bool   `json:"video"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Layout         string `json:"layout"`
	Projection     string `json:"projection"`
	ProjectionName string `json:"projection_name"`
	Codec          string `json:"codec,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	path := decoder.PathFromURI(args[0])
	if _, err := os.Stat(path); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := classification{File: path}
	probe, err := decoder.ProbeFile(ctx, cfg.Decoder.FFprobe, path)
	switch {
	case err == nil:
		out.Video = true
		out.Width, out.Height, out.Codec = probe.Width, probe.Height, probe.Codec
	default:
		img, ierr := decoder.LoadImage(path)
		if ierr != nil {
			return fmt.Errorf("not a video (%v) nor an image (%v)", err, ierr)
		}
		out.Width, out.Height = img.Width(), img.Height()
	}

	layout, err := projection.Classify(out.Width, out.Height)
	if err != nil {
		return err
	}
	kind := projection.DefaultKind(layout)
	out.Layout = layout.String()
	out.Projection = kind.String()
	out.ProjectionName = kind.Name()

	switch classifyFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	case "text":
		fmt.Printf("File:       %s\n", out.File)
		fmt.Printf("Size:       %dx%d\n", out.Width, out.Height)
		if out.Video {
			fmt.Printf("Codec:      %s\n", out.Codec)
		} else {
			fmt.Println("Type:       still image")
		}
		fmt.Printf("Layout:     %s°\n", out.Layout)
		fmt.Printf("Projection: %s (%s)\n", out.ProjectionName, out.Projection)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'text' or 'json')", classifyFormat)
	}
}
