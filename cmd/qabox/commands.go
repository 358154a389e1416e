package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/ericfisherdev/qabox/internal/config"
	"github.com/ericfisherdev/qabox/internal/domain/model"
)

func newRootCommand(e env) *cli.Command {
	return &cli.Command{
		Name:  "qabox",
		Usage: "Ask anonymous questions and moderate them from the console",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Commands: []*cli.Command{
			askCommand(e),
			showCommand(e),
			mineCommand(e),
			revokeCommand(e),
			publicCommand(e),
			uploadCommand(e),
			adminCommand(e),
			proxyCommand(e),
		},
	}
}

func askCommand(e env) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Submit an anonymous question (reads stdin when no text is given)",
		ArgsUsage: "[question text]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "Image URL returned by `qabox upload` (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			content, err := textArg(cmd, 0, e.stdin)
			if err != nil {
				return err
			}
			return e.withApp(ctx, cmd, func(a *app, p printer) error {
				receipt, err := a.ask.Submit(ctx, model.NewQuestion{Content: content, Images: cmd.StringSlice("image")})
				if err != nil {
					return err
				}
				return p.receipt(receipt)
			})
		},
	}
}

func showCommand(e env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a question and its answer",
		ArgsUsage: "<question-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := requireArg(cmd, 0, "question-id")
			if err != nil {
				return err
			}
			return e.withApp(ctx, cmd, func(a *app, p printer) error {
				q, err := a.ask.Get(ctx, id)
				if err != nil {
					return err
				}
				return p.question(q)
			})
		},
	}
}

func mineCommand(e env) *cli.Command {
	return &cli.Command{
		Name:  "mine",
		Usage: "List questions submitted from this client",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return e.withApp(ctx, cmd, func(a *app, p printer) error {
				qs, err := a.ask.Mine(ctx)
				if err != nil {
					return err
				}
				return p.questions(qs)
			})
		},
	}
}

func revokeCommand(e env) *cli.Command {
	return &cli.Command{
		Name:      "revoke",
		Usage:     "Withdraw an unanswered question submitted from this client",
		ArgsUsage: "<question-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := requireArg(cmd, 0, "question-id")
			if err != nil {
				return err
			}
			return e.withApp(ctx, cmd, func(a *app, p printer) error {
				if err := a.ask.Revoke(ctx, id); err != nil {
					return err
				}
				return p.message("revoked %s", id)
			})
		},
	}
}

func publicCommand(e env) *cli.Command {
	return &cli.Command{
		Name:  "public",
		Usage: "List answered public questions",
		Flags: []cli.Flag{
			skipFlag(),
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of questions to return"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return e.withApp(ctx, cmd, func(a *app, p printer) error {
				qs, err := a.ask.Public(ctx, int(cmd.Int("skip")), int(cmd.Int("limit")))
				if err != nil {
					return err
				}
				return p.questions(qs)
			})
		},
	}
}

func uploadCommand(e env) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload an image and print its URL",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			return e.withApp(ctx, cmd, func(a *app, p printer) error {
				url, err := a.ask.Upload(ctx, path, f)
				if err != nil {
					return err
				}
				return p.value("url", url)
			})
		},
	}
}

func adminCommand(e env) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Console commands (require `qabox admin login`)",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in to the console and store the session credential",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Required: true,
						Sources:  cli.EnvVars("QABOX_ADMIN_USERNAME"),
						Usage:    "Console username",
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Required: true,
						Sources:  cli.EnvVars("QABOX_ADMIN_PASSWORD"),
						Usage:    "Console password",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						token, err := a.admin.Login(ctx, cmd.String("username"), cmd.String("password"))
						if err != nil {
							return err
						}
						if token.ExpiresAt != "" {
							return p.message("logged in, session expires %s", token.ExpiresAt)
						}
						return p.message("logged in")
					})
				},
			},
			{
				Name:  "logout",
				Usage: "Forget the stored session credential",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						if err := a.admin.Logout(ctx); err != nil {
							return err
						}
						return p.message("logged out")
					})
				},
			},
			{
				Name:  "verify",
				Usage: "Check that the stored session is still accepted",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						res, err := a.admin.Verify(ctx)
						if err != nil {
							return err
						}
						if !res.Valid {
							return fmt.Errorf("session rejected: %w", model.ErrUnauthorized)
						}
						return p.message("session valid for %s", res.Username)
					})
				},
			},
			{
				Name:  "list",
				Usage: "List all questions, newest first",
				Flags: []cli.Flag{
					skipFlag(),
					&cli.IntFlag{Name: "limit", Value: 100, Usage: "Maximum number of questions to return"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						qs, err := a.admin.List(ctx, int(cmd.Int("skip")), int(cmd.Int("limit")))
						if err != nil {
							return err
						}
						return p.questions(qs)
					})
				},
			},
			{
				Name:      "answer",
				Usage:     "Answer a question (reads stdin when no text is given)",
				ArgsUsage: "<question-id> [answer text]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "image",
						Aliases: []string{"i"},
						Usage:   "Image URL to attach (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Keep the answered question out of the public list",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireArg(cmd, 0, "question-id")
					if err != nil {
						return err
					}
					content, err := textArg(cmd, 1, e.stdin)
					if err != nil {
						return err
					}
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						q, err := a.admin.Answer(ctx, id, model.Answer{
							Content:  content,
							Images:   cmd.StringSlice("image"),
							IsPublic: !cmd.Bool("private"),
						})
						if err != nil {
							return err
						}
						return p.question(q)
					})
				},
			},
			{
				Name:      "update",
				Usage:     "Change visibility or answered status",
				ArgsUsage: "<question-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "public", Usage: "Set public visibility (--public=false to hide)"},
					&cli.BoolFlag{Name: "answered", Usage: "Set answered status"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireArg(cmd, 0, "question-id")
					if err != nil {
						return err
					}
					var update model.QuestionUpdate
					if cmd.IsSet("public") {
						v := cmd.Bool("public")
						update.IsPublic = &v
					}
					if cmd.IsSet("answered") {
						v := cmd.Bool("answered")
						update.IsAnswered = &v
					}
					if update.IsPublic == nil && update.IsAnswered == nil {
						return errors.New("nothing to update: pass --public and/or --answered")
					}
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						q, err := a.admin.Update(ctx, id, update)
						if err != nil {
							return err
						}
						return p.question(q)
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a question and its images",
				ArgsUsage: "<question-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireArg(cmd, 0, "question-id")
					if err != nil {
						return err
					}
					return e.withApp(ctx, cmd, func(a *app, p printer) error {
						n, err := a.admin.Delete(ctx, id)
						if err != nil {
							return err
						}
						return p.message("deleted %s (%d images removed)", id, n)
					})
				},
			},
		},
	}
}

func proxyCommand(e env) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Serve a local reverse proxy for the backend's API and uploads",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runProxy(ctx, cfg, newLogger(e.stderr, cfg.LogLevel))
		},
	}
}

func skipFlag() cli.Flag {
	return &cli.IntFlag{Name: "skip", Usage: "Number of questions to skip"}
}

func requireArg(cmd *cli.Command, i int, name string) (string, error) {
	v := strings.TrimSpace(cmd.Args().Get(i))
	if v == "" {
		return "", fmt.Errorf("missing <%s>; usage: %s %s", name, cmd.Name, cmd.ArgsUsage)
	}
	return v, nil
}

// textArg joins the arguments from position i on, or reads stdin when there
// are none.
func textArg(cmd *cli.Command, i int, stdin io.Reader) (string, error) {
	args := cmd.Args().Slice()
	if len(args) > i {
		return strings.Join(args[i:], " "), nil
	}
	if stdin == nil {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
