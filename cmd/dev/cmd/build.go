package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const buildImage = "gophertribe/gobuild:1.25-bookworm"

type buildFlags struct {
	version   string
	goos      string
	goarch    string
	crossOS   string
	crossArch string
	noCache   bool
}

// native reports whether the host can build the cli directly. Anything else goes through
// the docker image since karalabe/hid needs a cgo toolchain for the target.
func (f buildFlags) native() bool {
	return f.goos == runtime.GOOS && f.goarch == runtime.GOARCH
}

func BuildCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the proximity host cli into dist/",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !f.native() {
				slog.Info("building in docker", "os", f.goos, "arch", f.goarch, "image", buildImage)
				self := fmt.Sprintf("./dev-%s-%s", f.goos, f.goarch)
				inner := []string{"build", "--version", f.version, "--cross-os", f.crossOS, "--cross-arch", f.crossArch}
				return build.Docker(cmd.Context(), self, inner, build.DockerBuildOpts{
					NoCache: f.noCache,
					Image:   buildImage,
				})
			}
			goos, goarch := f.goos, f.goarch
			if f.crossOS != "" && f.crossArch != "" {
				goos, goarch = f.crossOS, f.crossArch
			}
			slog.Info("building proximity", "version", f.version, "os", goos, "arch", goarch)
			err := build.GoBuild("dist/proximity", "./cmd/proximity", build.GoBuildOpts{
				Version:       f.version,
				InjectVersion: true,
				ConfigPackage: "main",
				EnableCgo:     true,
				OS:            goos,
				Arch:          goarch,
			})
			if err != nil {
				return fmt.Errorf("could not build proximity: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.version, "version", "latest", "version stamped into the binary")
	cmd.Flags().StringVar(&f.goos, "os", runtime.GOOS, "os to build for")
	cmd.Flags().StringVar(&f.goarch, "arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().StringVar(&f.crossOS, "cross-os", "", "os to cross-compile for inside the build image")
	cmd.Flags().StringVar(&f.crossArch, "cross-arch", "", "arch to cross-compile for inside the build image")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the docker build cache")
	return cmd
}
