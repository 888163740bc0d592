package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/upload"
)

func newUploadCmd() *cobra.Command {
	var autoredirect bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Uploads a profile file and prints the response headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var redirect *bool
			if cmd.Flags().Changed("autoredirect") {
				redirect = upload.Bool(autoredirect)
			}
			return runUploadCommand(cmd, args[0], redirect)
		},
	}
	cmd.Flags().BoolVar(&autoredirect, "autoredirect", false, "redirect to the uploaded profile (defaults to profiler.autoredirect)")
	return cmd
}

func runUploadCommand(cmd *cobra.Command, file string, autoredirect *bool) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	// #nosec G304 -- the operator names the file to upload.
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	basename := filepath.Base(file)
	if !strings.HasSuffix(basename, profile.Suffix) {
		basename += profile.Suffix
	}
	a.Slot.Put(profile.NewRecord(profile.ID(basename), raw, basename))

	resp := a.Coordinator.Call(cmd.Context(), a.Coordinator.Cleanup(cmd.Context()), nil, autoredirect)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %d\n", resp.Status)
	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, resp.Headers[k])
	}
	return nil
}
