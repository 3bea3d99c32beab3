package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/go-resume-portfolio/internal/chat"
	"github.com/pribylovaa/go-resume-portfolio/internal/coverletter"
	"github.com/pribylovaa/go-resume-portfolio/internal/export"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readPassword — пароль из флага, PORTFOLIO_PASSWORD или первой строки stdin.
func (a *app) readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if env := os.Getenv("PORTFOLIO_PASSWORD"); env != "" {
		return env, nil
	}

	fmt.Fprint(a.stderr, "password: ")
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return id, nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil || *email == "" {
		return errUsage
	}

	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}

	u, err := a.api.Auth.Login(ctx, *email, pw)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "logged in as %s\n", u.FullName())
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := a.flags("register")
	var in models.RegisterRequest
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil || in.Email == "" {
		return errUsage
	}

	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}
	in.Password = pw

	u, err := a.api.Auth.Register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "registered %s (id %d)\n", u.Email, u.ID)
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	u, err := a.api.Auth.Me(ctx)
	if err != nil {
		return err
	}

	return a.printJSON(u)
}

func (a *app) cmdStatus(ctx context.Context) error {
	st, err := a.api.Auth.Status(ctx)
	if err != nil {
		return err
	}

	if !st.LoggedIn {
		fmt.Fprintln(a.stdout, "not logged in")
		return nil
	}

	fmt.Fprintf(a.stdout, "logged in as %s\n", st.User.FullName())
	if !st.AccessExpiresAt.IsZero() {
		fmt.Fprintf(a.stdout, "access token expires %s\n", st.AccessExpiresAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(a.stdout, "session store: %s\n", a.cfg.Store.Backend)

	return nil
}

func (a *app) cmdResume(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "upload":
		if len(args) != 2 {
			return errUsage
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := a.api.Resumes.Upload(ctx, args[1], f)
		if err != nil {
			return err
		}

		return a.printJSON(res)
	case "list":
		list, err := a.api.Resumes.List(ctx)
		if err != nil {
			return err
		}

		return a.printJSON(list)
	case "delete":
		if len(args) != 2 {
			return errUsage
		}

		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		return a.api.Resumes.Delete(ctx, id)
	default:
		return errUsage
	}
}

func (a *app) cmdSection(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	sec, err := a.api.Portfolio.Raw(models.Section(args[1]))
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		items, err := sec.List(ctx)
		if err != nil {
			return err
		}

		return a.printJSON(items)
	case "add":
		fs := a.flags("section add")
		doc := fs.String("json", "", "item as JSON")
		file := fs.String("file", "", "path to JSON file with the item")
		if err := fs.Parse(args[2:]); err != nil {
			return errUsage
		}

		raw := []byte(*doc)
		if *file != "" {
			if raw, err = os.ReadFile(*file); err != nil {
				return err
			}
		}

		if !json.Valid(raw) {
			return fmt.Errorf("section add: item must be valid JSON")
		}

		created, err := sec.Create(ctx, json.RawMessage(raw))
		if err != nil {
			return err
		}

		return a.printJSON(created)
	case "delete":
		if len(args) != 3 {
			return errUsage
		}

		id, err := parseID(args[2])
		if err != nil {
			return err
		}

		return sec.Delete(ctx, id)
	default:
		return errUsage
	}
}

// cmdExport выгружает все разделы портфолио параллельно в один JSON-документ.
func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := a.flags("export")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var (
		mu  sync.Mutex
		doc = make(map[models.Section][]json.RawMessage, len(models.Sections))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, name := range models.Sections {
		sec, err := a.api.Portfolio.Raw(name)
		if err != nil {
			return err
		}

		g.Go(func() error {
			items, err := sec.List(gctx)
			if err != nil {
				return err
			}

			mu.Lock()
			doc[name] = items
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if *out == "" {
		return a.printJSON(doc)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, append(data, '\n'), 0o644); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "exported %d sections to %s\n", len(doc), *out)
	return nil
}

func (a *app) cmdChat(ctx context.Context, args []string) error {
	fs := a.flags("chat")
	sessionID := fs.String("session", "default", "conversation id")
	reset := fs.Bool("reset", false, "forget the conversation before asking")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	history, err := chat.Open(ctx, a.cfg.Chat)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = history.Close(cctx)
	}()

	s := chat.NewSession(*sessionID, history, a.api.Chat, a.cfg.Chat.MaxHistory)

	if *reset {
		if err := s.Reset(ctx); err != nil {
			return err
		}
	}

	if msg := strings.Join(fs.Args(), " "); msg != "" {
		reply, err := s.Ask(ctx, msg)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.stdout, reply)
		return nil
	}

	// Интерактивный режим: строка — вопрос, /history — показать историю,
	// /reset — очистить её, /quit — выход.
	sc := bufio.NewScanner(a.stdin)
	fmt.Fprint(a.stderr, "> ")
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch line {
		case "":
		case "/quit", "/exit":
			return nil
		case "/history":
			msgs, err := s.Transcript(ctx)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Fprintf(a.stdout, "%s: %s\n", m.Role, m.Content)
			}
		case "/reset":
			if err := s.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, "history cleared")
		default:
			reply, err := s.Ask(ctx, line)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, reply)
		}

		fmt.Fprint(a.stderr, "> ")
	}

	return sc.Err()
}

// letterSource — текст письма из бэкенда (--id) или из markdown-файла (--file).
type letterSource struct {
	id       int64
	file     string
	template string
	resumeID int64
	out      string
}

func (a *app) letterFlags(name string, args []string) (letterSource, *bool, error) {
	fs := a.flags(name)
	var src letterSource
	fs.Int64Var(&src.id, "id", 0, "cover letter id")
	fs.StringVar(&src.file, "file", "", "markdown file with the letter")
	fs.StringVar(&src.template, "template", a.cfg.Export.Template, "classic|modern|minimal|executive")
	fs.Int64Var(&src.resumeID, "resume", 0, "resume id to take contact details from")
	fs.StringVar(&src.out, "out", "", "output file")
	upload := fs.Bool("upload", false, "upload the PDF to S3")

	if err := fs.Parse(args); err != nil || (src.id == 0) == (src.file == "") {
		return letterSource{}, nil, errUsage
	}

	return src, upload, nil
}

func (a *app) cmdLetter(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "generate":
		return a.cmdLetterGenerate(ctx, args[1:])
	case "render":
		src, _, err := a.letterFlags("letter render", args[1:])
		if err != nil {
			return err
		}

		html, _, err := a.renderLetter(ctx, src)
		if err != nil {
			return err
		}

		return a.writeOut(src.out, html)
	case "pdf":
		src, upload, err := a.letterFlags("letter pdf", args[1:])
		if err != nil {
			return err
		}

		return a.cmdLetterPDF(ctx, src, *upload)
	default:
		return errUsage
	}
}

func (a *app) cmdLetterGenerate(ctx context.Context, args []string) error {
	fs := a.flags("letter generate")
	var in models.GenerateCoverLetterRequest
	fs.StringVar(&in.Role, "role", "", "target role")
	fs.StringVar(&in.Company, "company", "", "target company")
	fs.Int64Var(&in.ResumeID, "resume", 0, "resume id")
	job := fs.String("job", "", "file with the job description")
	out := fs.String("out", "", "write markdown to file")
	if err := fs.Parse(args); err != nil || in.Role == "" || in.Company == "" {
		return errUsage
	}

	if *job != "" {
		data, err := os.ReadFile(*job)
		if err != nil {
			return err
		}
		in.JobDescription = string(data)
	}

	cl, err := a.api.CoverLetters.Generate(ctx, in)
	if err != nil {
		return err
	}

	return a.writeOut(*out, []byte(cl.Content+"\n"))
}

// renderLetter собирает HTML письма; второе значение — имя для файла/ключа.
func (a *app) renderLetter(ctx context.Context, src letterSource) ([]byte, string, error) {
	tpl, err := coverletter.ParseTemplate(src.template)
	if err != nil {
		return nil, "", err
	}

	letter := coverletter.Letter{Date: time.Now()}
	name := "cover-letter"

	if src.id != 0 {
		cl, err := a.api.CoverLetters.Get(ctx, src.id)
		if err != nil {
			return nil, "", err
		}
		letter.Markdown, letter.Role, letter.Company = cl.Content, cl.Role, cl.Company
		if src.resumeID == 0 {
			src.resumeID = cl.ResumeID
		}
		name = strings.TrimSpace(cl.Role + " " + cl.Company)
	} else {
		data, err := os.ReadFile(src.file)
		if err != nil {
			return nil, "", err
		}
		letter.Markdown = string(data)
	}

	letter.Sender = a.senderContact(ctx, src.resumeID)
	if letter.Sender.Empty() {
		a.log.Warn("sender_contact_empty", slog.Int64("resume_id", src.resumeID))
		fmt.Fprintln(a.stderr, "warning: no sender contact details; log in or pass --resume")
	}

	html, err := coverletter.NewRenderer().RenderString(tpl, letter)
	if err != nil {
		return nil, "", err
	}

	return []byte(html), name, nil
}

// senderContact: сохранённый пользователь, дополненный контактами из резюме.
func (a *app) senderContact(ctx context.Context, resumeID int64) coverletter.Contact {
	var c coverletter.Contact

	if u, err := a.store.User(ctx); err == nil {
		c = coverletter.ContactFromUser(u)
	}

	if resumeID == 0 {
		return c
	}

	res, err := a.api.Resumes.Get(ctx, resumeID)
	if err != nil {
		a.log.Warn("resume_contacts_unavailable", slog.Int64("resume_id", resumeID), slog.String("err", err.Error()))
		return c
	}

	fromResume := coverletter.ExtractContact(res.Text).Merge(coverletter.Contact{
		Name:  res.Name,
		Email: res.Email,
		Phone: res.Phone,
	})

	return c.Merge(fromResume)
}

func (a *app) cmdLetterPDF(ctx context.Context, src letterSource, upload bool) error {
	html, name, err := a.renderLetter(ctx, src)
	if err != nil {
		return err
	}

	var up export.Uploader
	if upload {
		if a.cfg.Export.S3.Endpoint == "" {
			return fmt.Errorf("letter pdf: --upload needs export.s3.endpoint")
		}

		s3, err := export.NewS3Uploader(ctx, a.cfg.Export.S3)
		if err != nil {
			return err
		}
		up = s3
	}

	res, err := export.New(export.NewPDFRenderer(a.cfg.Export), up).Export(ctx, name, html)
	if err != nil {
		return err
	}

	out := src.out
	if out == "" {
		out = export.FileName(name)
	}

	if err := os.WriteFile(out, res.PDF, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "wrote %s\n", out)
	if res.URL != "" {
		fmt.Fprintf(a.stdout, "uploaded %s\n", res.URL)
	}

	return nil
}

func (a *app) writeOut(path string, data []byte) error {
	if path == "" {
		_, err := a.stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
