// cmd/smeagol/main.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheSilvus/smeagol/internal/repo"
	"github.com/TheSilvus/smeagol/internal/server"
	"github.com/TheSilvus/smeagol/internal/storage"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

var repoPath string

var rootCmd = &cobra.Command{
	Use:   "smeagol",
	Short: "Smeagol is a versioned wiki store",
	Long: `Smeagol stores a wiki as a content-addressed object graph: every edit
becomes an immutable snapshot commit, and unchanged pages are shared between
snapshots. This CLI works directly on a repository.`,
}

func openRepo() (*repo.Repository, *storage.Store, error) {
	store, err := storage.Open(repoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening repository: %w", err)
	}
	return repo.New(store), store, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", "repo", "repository directory")

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new wiki repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			repository, store, err := openRepo()
			if err != nil {
				return err
			}
			defer store.Close()

			// Forcing HEAD creates the empty root commit if needed.
			if _, err := repository.Head(); err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}

			fmt.Println("Initialized wiki repository in", repoPath)
			return nil
		},
	}

	var getCmd = &cobra.Command{
		Use:   "get <path>",
		Short: "Print a page's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repository, store, err := openRepo()
			if err != nil {
				return err
			}
			defer store.Close()

			content, err := repository.Item(wikipath.FromString(args[0])).Content()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(content)
			return err
		},
	}

	var message string
	var putCmd = &cobra.Command{
		Use:   "put <path>",
		Short: "Write a page from stdin as a new snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}

			repository, store, err := openRepo()
			if err != nil {
				return err
			}
			defer store.Close()

			if message == "" {
				message = fmt.Sprintf("Edit %s", args[0])
			}
			outcome, err := repository.Item(wikipath.FromString(args[0])).Edit(content, message)
			if err != nil {
				return fmt.Errorf("editing %s: %w", args[0], err)
			}

			switch outcome {
			case repo.OutcomeNoChange:
				color.Yellow("No change, nothing committed")
			default:
				color.Green("Committed %s", args[0])
			}
			return nil
		},
	}
	putCmd.Flags().StringVarP(&message, "message", "m", "", "commit message")

	var lsCmd = &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repository, store, err := openRepo()
			if err != nil {
				return err
			}
			defer store.Close()

			path := wikipath.New()
			if len(args) == 1 {
				path = wikipath.FromString(args[0])
			}
			children, err := repository.Item(path).List()
			if err != nil {
				return err
			}

			dir := color.New(color.FgBlue, color.Bold)
			for _, child := range children {
				name, ok := child.Path().Filename()
				if !ok {
					continue
				}
				isDir, err := child.IsDir()
				if err != nil {
					return err
				}
				if isDir {
					dir.Printf("%s/\n", name)
				} else {
					fmt.Printf("%s\n", name)
				}
			}
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show the snapshot history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			repository, store, err := openRepo()
			if err != nil {
				return err
			}
			defer store.Close()

			commits, err := repository.Log()
			if err != nil {
				return err
			}

			hash := color.New(color.FgYellow)
			for _, commit := range commits {
				hash.Printf("commit %s\n", commit.Hash())
				fmt.Printf("Author: %s\n", commit.Author())
				fmt.Printf("Date:   %s\n\n", commit.Author().When.Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Printf("    %s\n\n", commit.Message())
			}
			return nil
		},
	}

	var configPath string
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the wiki over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return server.Run(cfg)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "config.json", "path to the config file")

	rootCmd.AddCommand(initCmd, getCmd, putCmd, lsCmd, logCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
