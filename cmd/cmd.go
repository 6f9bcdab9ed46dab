// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func exportFlags(format, usage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   usage,
			Value:   format,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: <kind>.<ext> in the working directory)",
		},
	}
}

// setupCommand handles setup operations for the gateway database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the gateway server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the gateway server that stores signed-in users' data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles sign-in and sign-out
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in identity",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with --user, or through the configured OAuth2 provider",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "User id to sign in as (skips the OAuth2 flow)",
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Email to send with --user",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name to send with --user",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out; data saved while signed out becomes visible again",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in identity and check the gateway (calls /health)",
				Action: r.AuthStatus,
			},
		},
	}
}

// notesCommand handles note groups and notes
func notesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Manage note groups and notes",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List note groups and their notes",
				Flags:  jsonFlags(),
				Action: r.NotesList,
			},
			{
				Name:      "add-group",
				Usage:     "Create a note group",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.NotesAddGroup,
			},
			{
				Name:  "add",
				Usage: "Add a note to a group",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "group",
						Aliases:  []string{"g"},
						Usage:    "Group ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Note title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "content",
						Usage: "Note content",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read note content from a file",
					},
				},
				Action: r.NotesAdd,
			},
			{
				Name:      "edit",
				Usage:     "Replace a note's title and content",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New title (default: unchanged)",
					},
					&cli.StringFlag{
						Name:  "content",
						Usage: "New content (default: unchanged)",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read new content from a file",
					},
				},
				Action: r.NotesEdit,
			},
			{
				Name:      "rm",
				Usage:     "Delete a note",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.NotesRemove,
			},
			{
				Name:      "rm-group",
				Usage:     "Delete a note group and every note in it",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.NotesRemoveGroup,
			},
			{
				Name:   "export",
				Usage:  "Export notes to a file",
				Flags:  exportFlags("markdown", "Export format: markdown, json or text"),
				Action: r.NotesExport,
			},
		},
	}
}

// bookmarksCommand handles saved links
func bookmarksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bookmarks",
		Aliases: []string{"bm"},
		Usage:   "Manage bookmarks",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List bookmarks, newest first",
				Flags:  jsonFlags(),
				Action: r.BookmarksList,
			},
			{
				Name:      "add",
				Usage:     "Save a link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Title (default: the URL)",
					},
				},
				Action: r.BookmarksAdd,
			},
			{
				Name:      "rm",
				Usage:     "Delete a bookmark",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.BookmarksRemove,
			},
			{
				Name:   "export",
				Usage:  "Export bookmarks to a file",
				Flags:  exportFlags("csv", "Export format: csv or json"),
				Action: r.BookmarksExport,
			},
		},
	}
}

// remindersCommand handles calendar reminders
func remindersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reminders",
		Usage: "Manage calendar reminders",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List reminders in date order",
				Flags: append(jsonFlags(), &cli.StringFlag{
					Name:  "date",
					Usage: "Only show reminders on this day (YYYY-MM-DD)",
				}),
				Action: r.RemindersList,
			},
			{
				Name:  "add",
				Usage: "Attach a note to a day",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "date",
						Aliases:  []string{"d"},
						Usage:    "Day (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "note",
						Aliases:  []string{"n"},
						Usage:    "Reminder text",
						Required: true,
					},
				},
				Action: r.RemindersAdd,
			},
			{
				Name:      "rm",
				Usage:     "Delete a reminder",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.RemindersRemove,
			},
		},
	}
}

// statsCommand handles pomodoro sessions and their statistics
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Pomodoro sessions and study statistics",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show totals, streaks and the daily breakdown",
				Flags:  jsonFlags(),
				Action: r.StatsShow,
			},
			{
				Name:  "record",
				Usage: "Record a completed pomodoro session dated today",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "pomodoros",
						Aliases: []string{"p"},
						Usage:   "Number of completed pomodoros",
						Value:   1,
					},
					&cli.IntFlag{
						Name:  "focus",
						Usage: "Minutes per pomodoro (default: stats.pomodoro_minutes)",
					},
					&cli.IntFlag{
						Name:  "break",
						Usage: "Minutes of rest between pomodoros (default: stats.break_minutes)",
						Value: -1,
					},
					&cli.StringSliceFlag{
						Name:  "task",
						Usage: `Completed task as "title" or "title:estimated minutes"; repeatable`,
					},
				},
				Action: r.StatsRecord,
			},
			{
				Name:   "export",
				Usage:  "Export statistics to a file",
				Flags:  exportFlags("text", "Export format: text, csv or json"),
				Action: r.StatsExport,
			},
		},
	}
}

// backupCommand exports every domain at once
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Export notes, bookmarks, reminders and stats into one directory with a manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: studydesk_backup_<epoch>)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file writers",
				Value: 2,
			},
		},
		Action: r.Backup,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive study dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the dashboard is open",
				Value: "./tmp/studydesk-tui.log",
			},
		},
		Action: r.TUI,
	}
}
