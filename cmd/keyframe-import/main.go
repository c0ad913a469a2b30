// Command keyframe-import replays a recorded frame list into a project
// snapshot's animation timeline and writes the animated project. It is a
// one-shot tool: read, import, write, exit.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nepfaff/drake-blender-recorder/internal/importer"
	"github.com/nepfaff/drake-blender-recorder/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("keyframe-import", flag.ContinueOnError)
	framesPath := fs.String("frames", "", "frame-list dump written by the recording server (required, *.gob)")
	projectPath := fs.String("project", "", "project snapshot to animate (required, *.glb)")
	outPath := fs.String("out", "", "output path for the animated project (required, *.glb)")
	fps := fs.Float64("fps", importer.DefaultFPS, "playback rate used to place keyframes in time")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *framesPath == "" || *projectPath == "" || *outPath == "" {
		fs.Usage()
		return fmt.Errorf("-frames, -project and -out are required")
	}

	logger := logging.NewLogger(*logLevel)

	result, err := importer.Run(importer.Options{
		FramesPath:  *framesPath,
		ProjectPath: *projectPath,
		OutputPath:  *outPath,
		FPS:         *fps,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d frames for %d objects into %s\n", result.Frames, result.Matched, *outPath)
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d objects with no matching node: %v\n", len(result.Skipped), result.Skipped)
	}
	return nil
}
