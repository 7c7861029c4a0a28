package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kelsos/filestation/internal/client"
	"github.com/kelsos/filestation/internal/filestation"
	"github.com/kelsos/filestation/internal/logger"
	"github.com/kelsos/filestation/internal/models"
	"github.com/kelsos/filestation/internal/utils"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSearchCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <folder> <pattern>",
		Short: "Find files under a folder whose names match a pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				paths, err := fs.Search(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	}
}

func newDirSizeCommand(flags *rootFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "dirsize <path>",
		Short: "Total size of everything under a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				size, err := fs.DirSize(ctx, args[0])
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprintln(cmd.OutOrStdout(), size)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", utils.FormatSize(size), args[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&raw, "bytes", "b", false, "Print the size in bytes only")
	return cmd
}

func newMD5Command(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "md5 <file>...",
		Short: "MD5 digest of one or more files, computed on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				digests, err := fs.MD5Many(ctx, args)
				if err != nil {
					return err
				}
				for _, p := range args {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digests[p], p)
				}
				return nil
			})
		},
	}
}

func newInfoCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show FileStation information for the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				info, err := fs.Info(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info)
			})
		},
	}
}

func newSharesCommand(flags *rootFlags) *cobra.Command {
	var opts filestation.ListShareOptions
	cmd := &cobra.Command{
		Use:   "shares",
		Short: "List shared folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				shares, err := fs.ListShares(ctx, opts)
				if err != nil {
					return err
				}
				for _, share := range shares.Shares {
					fmt.Fprintln(cmd.OutOrStdout(), share.Path)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.WritableOnly, "writable", false, "Only shares the account may write to")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of shares (default 25)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of shares to skip")
	return cmd
}

func newListCommand(flags *rootFlags) *cobra.Command {
	var opts filestation.ListOptions
	cmd := &cobra.Command{
		Use:   "ls <folder>",
		Short: "List the entries of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				list, err := fs.List(ctx, args[0], opts)
				if err != nil {
					return err
				}
				for _, file := range list.Files {
					printEntry(cmd.OutOrStdout(), file, opts.Additional)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of entries (default 25)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "", "Sort field: name, size, user, group, mtime, atime, ctime, crtime, posix or type")
	cmd.Flags().StringVar(&opts.SortDirection, "direction", "", "Sort direction: asc or desc")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "Only names matching this glob pattern")
	cmd.Flags().StringVar(&opts.FileType, "type", "", "Entry type: file, dir or all")
	cmd.Flags().BoolVarP(&opts.Additional, "long", "l", false, "Show size, owner and modification time")
	return cmd
}

func printEntry(w io.Writer, file models.File, long bool) {
	name := file.Path
	if file.IsDir {
		name += "/"
	}
	if !long || file.Additional == nil {
		fmt.Fprintln(w, name)
		return
	}

	owner := "-"
	if file.Additional.Owner != nil {
		owner = file.Additional.Owner.User
	}
	mtime := "-"
	if file.Additional.Time != nil {
		mtime = utils.FormatEpoch(file.Additional.Time.Mtime)
	}
	fmt.Fprintf(w, "%-10s %-12s %s  %s\n", utils.FormatSize(file.Additional.Size), owner, mtime, name)
}

func newStatCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show details of a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				info, err := fs.GetInfo(ctx, args[0], true)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info.Files)
			})
		},
	}
}

func newPermCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "perm <path>",
		Short: "Check whether the account may write to a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				if err := fs.CheckWritePermission(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is writable\n", args[0])
				return nil
			})
		},
	}
}

func newRemoveCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				if err := fs.Delete(ctx, args[0]); err != nil {
					return err
				}
				logger.Info("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func newMkdirCommand(flags *rootFlags) *cobra.Command {
	var parents bool
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, name := path.Split(path.Clean(args[0]))
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				created, err := fs.CreateFolder(ctx, path.Clean(parent), name, parents, false)
				if err != nil {
					return err
				}
				for _, folder := range created.Folders {
					fmt.Fprintln(cmd.OutOrStdout(), folder.Path)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&parents, "parents", "p", true, "Create missing parent folders")
	return cmd
}

func newRenameCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				renamed, err := fs.Rename(ctx, args[0], args[1], false)
				if err != nil {
					return err
				}
				for _, file := range renamed.Files {
					fmt.Fprintln(cmd.OutOrStdout(), file.Path)
				}
				return nil
			})
		},
	}
}

// outputFile opens target for writing, or stdout for "-".
func outputFile(cmd *cobra.Command, target string) (io.Writer, func() error, error) {
	if target == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newThumbCommand(flags *rootFlags) *cobra.Command {
	var (
		size   string
		rotate int
		output string
	)
	cmd := &cobra.Command{
		Use:   "thumb <path>",
		Short: "Fetch the thumbnail of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = path.Base(args[0]) + ".thumb.jpg"
			}
			w, closeFn, err := outputFile(cmd, output)
			if err != nil {
				return err
			}
			defer closeFn()

			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				n, err := fs.Thumbnail(ctx, args[0], size, rotate, w)
				if err != nil {
					return err
				}
				logger.Info("Wrote %s thumbnail to %s", utils.FormatSize(n), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "small", "Thumbnail size: small, medium, large or original")
	cmd.Flags().IntVar(&rotate, "rotate", 0, "Rotation in 90 degree steps (0-4)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}

func newDownloadCommand(flags *rootFlags) *cobra.Command {
	var (
		mode   string
		output string
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = path.Base(args[0])
			}
			w, closeFn, err := outputFile(cmd, output)
			if err != nil {
				return err
			}
			defer closeFn()

			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				n, err := fs.Download(ctx, args[0], mode, w)
				if err != nil {
					return err
				}
				logger.Info("Downloaded %s to %s", utils.FormatSize(n), output)
				if !verify || output == "-" {
					return nil
				}

				if err := closeFn(); err != nil {
					return err
				}
				digest, err := fs.MD5(ctx, args[0])
				if err != nil {
					return err
				}
				if err := utils.VerifyMD5(output, digest); err != nil {
					return err
				}
				logger.Info("Verified %s against the server digest %s", output, digest)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Compare the local copy with an MD5 computed on the server")
	cmd.Flags().StringVar(&mode, "mode", "open", "Download mode: open or download")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}

func newUploadCommand(flags *rootFlags) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "upload <local-file> <remote-path>",
		Short: "Upload a local file to a path on the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return flags.withSession(cmd, func(ctx context.Context, fs *filestation.FileStation) error {
				if err := fs.Upload(ctx, args[1], f, overwrite); err != nil {
					return err
				}
				logger.Info("Uploaded %s to %s", args[0], args[1])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "f", false, "Replace an existing remote file")
	return cmd
}

func newPingCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the DSM web API answers and list its FileStation APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			api := client.NewAPIClient(cfg)
			if !api.WaitForAPIReady(cmd.Context()) {
				return fmt.Errorf("%s did not answer after %d attempts", cfg.BaseURL, cfg.APIReadyAttempts)
			}

			apis, err := api.Ping(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, 0, len(apis))
			for name := range apis {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				info := apis[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-10s v%d-%d\n", name, info.Path, info.MinVersion, info.MaxVersion)
			}
			return nil
		},
	}
}
