package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mahmutgunduz1/MyHealth/internal/appointments"
	"github.com/mahmutgunduz1/MyHealth/internal/auth"
	"github.com/mahmutgunduz1/MyHealth/internal/config"
	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
	"github.com/mahmutgunduz1/MyHealth/internal/gateway"
	"github.com/mahmutgunduz1/MyHealth/internal/health"
	"github.com/mahmutgunduz1/MyHealth/internal/metrics"
	"github.com/mahmutgunduz1/MyHealth/internal/notify"
	"github.com/mahmutgunduz1/MyHealth/internal/schedule"
	"github.com/mahmutgunduz1/MyHealth/internal/session"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

// App holds the application components
type App struct {
	config       *config.Config
	store        *store.Store
	session      *session.Manager
	dispatcher   *gateway.Dispatcher
	logger       *zap.Logger
	auth         *auth.Service
	health       *health.Service
	appointments *appointments.Service
	scheduler    *notify.Scheduler
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "register":
			withApp(func(app *App) { app.handleRegister(stripGlobalFlags(os.Args[2:])) })
			return
		case "login":
			withApp(func(app *App) { app.handleLogin(stripGlobalFlags(os.Args[2:])) })
			return
		case "logout":
			withApp(func(app *App) { app.handleLogout() })
			return
		case "profile":
			withApp(func(app *App) { app.handleProfile() })
			return
		case "health":
			withApp(func(app *App) { app.handleHealthCommand(stripGlobalFlags(os.Args[2:])) })
			return
		case "appointments", "appt":
			withApp(func(app *App) { app.handleAppointmentsCommand(stripGlobalFlags(os.Args[2:])) })
			return
		case "calendar":
			withApp(func(app *App) { app.handleCalendar(stripGlobalFlags(os.Args[2:])) })
			return
		case "remind":
			withApp(func(app *App) { app.runReminders() })
			return
		case "status":
			withApp(func(app *App) { app.handleStatus(stripGlobalFlags(os.Args[2:])) })
			return
		case "help", "--help", "-h":
			printExtendedHelp()
			return
		case "version", "--version", "-v":
			fmt.Printf("MyHealth version %s\n", version)
			return
		}
	}

	flag.Parse()
	printExtendedHelp()
}

// withApp wires the component graph, runs fn, and tears everything down.
func withApp(fn func(*App)) {
	// Trailing flags like "myhealth login -email x" belong to the
	// subcommand, only the global -config/-data pair is parsed here.
	flag.CommandLine.Parse(globalFlagArgs())

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	st, err := store.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	sess := session.NewManager(st.Badger(), logger)
	dispatcher := gateway.NewDispatcher(4, logger)
	defer dispatcher.Close()

	scheduler := notify.NewScheduler(st, &notify.LogSink{Log: logger}, func() bool {
		return cfg.Notifications.ExactAlarms
	}, logger)
	defer scheduler.Close()

	app := &App{
		config:       cfg,
		store:        st,
		session:      sess,
		dispatcher:   dispatcher,
		logger:       logger,
		auth:         auth.NewService(st, sess, logger),
		health:       health.NewService(st, sess, logger),
		appointments: appointments.NewService(st, sess, dispatcher, logger),
		scheduler:    scheduler,
	}

	fn(app)
}

// globalFlagArgs filters os.Args down to the -config/-data pairs so the
// subcommand's own FlagSet can parse the rest.
func globalFlagArgs() []string {
	var out []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config", "--config", "-data", "--data":
			if i+1 < len(args) {
				out = append(out, args[i], args[i+1])
				i++
			}
		}
	}
	return out
}

// stripGlobalFlags removes the -config/-data pairs so a subcommand's
// FlagSet only sees its own flags.
func stripGlobalFlags(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config", "--config", "-data", "--data":
			i++
		default:
			out = append(out, args[i])
		}
	}
	return out
}

func newLogger(level string) *zap.Logger {
	zapCfg := zap.NewDevelopmentConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}

func (app *App) handleRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	fs.Parse(args)

	if *name == "" || *email == "" {
		fmt.Println("Usage: myhealth register -name <name> -email <email>")
		os.Exit(1)
	}

	password := promptPassword("Password: ")
	confirm := promptPassword("Confirm password: ")

	user, err := app.auth.Register(auth.RegisterInput{
		Name:            *name,
		Email:           *email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Welcome, %s! Your account is ready and you are signed in.\n", user.Name)
	fmt.Println("Next: myhealth health set -height <cm> -weight <kg> ...")
}

func (app *App) handleLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	remember := fs.Bool("remember", false, "Remember these credentials")
	fs.Parse(args)

	loginEmail := *email
	if loginEmail == "" {
		if saved, _ := app.session.SavedCredentials(); saved != "" {
			loginEmail = saved
			fmt.Printf("Using remembered email %s\n", loginEmail)
		}
	}
	if loginEmail == "" {
		fmt.Println("Usage: myhealth login -email <email> [-remember]")
		os.Exit(1)
	}

	password := promptPassword("Password: ")

	user, err := app.auth.Login(loginEmail, password, *remember)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
}

func (app *App) handleLogout() {
	if !app.session.IsLoggedIn() {
		fmt.Println("Not signed in.")
		return
	}
	if err := app.auth.Logout(); err != nil {
		fmt.Printf("Logout failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Signed out.")
}

func (app *App) handleProfile() {
	summary, err := app.health.Summarize()
	if err != nil {
		exitForError(err)
	}

	account := summary.Account
	fmt.Println("Your Profile:")
	fmt.Println("=============")
	fmt.Printf("Name:  %s\n", account.Name)
	fmt.Printf("Email: %s\n", account.Email)
	if account.Gender != nil {
		fmt.Printf("Gender: %s\n", *account.Gender)
	}
	if account.BirthDate != nil {
		fmt.Printf("Birth date: %s\n", *account.BirthDate)
	}
	if account.HeightCm != nil {
		fmt.Printf("Height: %d cm\n", *account.HeightCm)
	}
	if account.WeightKg != nil {
		fmt.Printf("Weight: %.1f kg\n", *account.WeightKg)
	}
	if account.ActivityLevel != nil {
		fmt.Printf("Activity level: %s\n", *account.ActivityLevel)
	}
	if account.WaterIntake != nil {
		fmt.Printf("Water intake: %d glasses/day\n", *account.WaterIntake)
	}
	if account.SleepHours != nil {
		fmt.Printf("Sleep: %.1f hours/night\n", *account.SleepHours)
	}

	fmt.Println()
	if summary.BMIDefined {
		fmt.Printf("BMI: %.1f\n", summary.BMI)
	} else {
		fmt.Println("BMI: not available (set height and weight first)")
	}
	fmt.Printf("Estimated blood oxygen: %d%%\n", summary.BloodOxygen)
}

func (app *App) handleHealthCommand(args []string) {
	if len(args) == 0 || args[0] != "set" {
		fmt.Println("Usage: myhealth health set [flags]")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -gender <value>        Gender")
		fmt.Println("  -birth <date>          Birth date")
		fmt.Println("  -height <cm>           Height in centimeters")
		fmt.Println("  -weight <kg>           Weight in kilograms")
		fmt.Println("  -activity <level>      Activity level")
		fmt.Println("  -water <glasses>       Daily water intake")
		fmt.Println("  -sleep-start <HH:MM>   Usual bedtime")
		fmt.Println("  -sleep-end <HH:MM>     Usual wake-up time")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("health set", flag.ExitOnError)
	gender := fs.String("gender", "", "Gender")
	birth := fs.String("birth", "", "Birth date")
	height := fs.Int("height", 0, "Height in cm")
	weight := fs.Float64("weight", 0, "Weight in kg")
	activity := fs.String("activity", "", "Activity level")
	water := fs.Int("water", -1, "Daily water intake in glasses")
	sleepStart := fs.String("sleep-start", "", "Bedtime (HH:MM)")
	sleepEnd := fs.String("sleep-end", "", "Wake-up time (HH:MM)")
	fs.Parse(args[1:])

	var err error
	if *water >= 0 || *sleepStart != "" || *sleepEnd != "" {
		err = app.health.SetFullData(*gender, *birth, *height, *weight, *activity, *water, *sleepStart, *sleepEnd)
	} else {
		err = app.health.SetBasicData(*gender, *birth, *height, *weight, *activity)
	}
	if err != nil {
		exitForError(err)
	}

	fmt.Println("Health data saved.")
}

func (app *App) handleAppointmentsCommand(args []string) {
	if len(args) == 0 {
		printAppointmentsHelp()
		return
	}

	ctx := context.Background()

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("appointments add", flag.ExitOnError)
		doctor := fs.String("doctor", "", "Doctor name")
		specialty := fs.String("specialty", "", "Specialty")
		date := fs.String("date", "", `Date, e.g. "May 10, 2026"`)
		start := fs.String("start", "", "Start time (HH:MM)")
		end := fs.String("end", "", "End time (HH:MM)")
		location := fs.String("location", "", "Location")
		fs.Parse(args[1:])

		appt, err := app.appointments.Add(ctx, appointments.AddInput{
			DoctorName: *doctor,
			Specialty:  *specialty,
			Date:       *date,
			StartTime:  *start,
			EndTime:    *end,
			Location:   *location,
		})
		if err != nil {
			exitForError(err)
		}
		fmt.Printf("Appointment #%d with %s on %s at %s saved.\n",
			appt.ID, appt.DoctorName, appt.Date, appt.StartTime)

		app.scheduleAppointmentReminder(appt)

	case "list", "ls":
		overview, err := app.appointments.Overview(ctx)
		if err != nil {
			exitForError(err)
		}

		if overview.Next == nil && len(overview.Later) == 0 && len(overview.Past) == 0 {
			fmt.Println("No appointments yet. Add one with: myhealth appointments add")
			return
		}

		if overview.Next != nil {
			fmt.Println("Next appointment:")
			printAppointment(overview.Next)
			fmt.Println()
		}
		if len(overview.Later) > 0 {
			fmt.Println("Upcoming:")
			for i := range overview.Later {
				printAppointment(&overview.Later[i])
			}
			fmt.Println()
		}
		if len(overview.Past) > 0 {
			fmt.Println("Past:")
			for i := range overview.Past {
				printAppointment(&overview.Past[i])
			}
		}

	case "next":
		overview, err := app.appointments.Overview(ctx)
		if err != nil {
			exitForError(err)
		}
		if overview.Next == nil {
			fmt.Println("No upcoming appointments.")
			return
		}
		printAppointment(overview.Next)

	case "cancel":
		fs := flag.NewFlagSet("appointments cancel", flag.ExitOnError)
		id := fs.Int("id", 0, "Appointment id")
		fs.Parse(args[1:])

		if *id <= 0 {
			fmt.Println("Usage: myhealth appointments cancel -id <id>")
			os.Exit(1)
		}

		if err := app.appointments.Cancel(ctx, *id); err != nil {
			exitForError(err)
		}
		app.scheduler.Cancel(appointmentReminderID(*id))
		fmt.Printf("Appointment #%d cancelled.\n", *id)

	default:
		printAppointmentsHelp()
	}
}

func (app *App) handleCalendar(args []string) {
	if len(args) == 0 {
		fmt.Println(`Usage: myhealth calendar "<date>"  (e.g. "May 10, 2026")`)
		os.Exit(1)
	}

	day, err := time.ParseInLocation(schedule.DateLayout, strings.Join(args, " "), time.Local)
	if err != nil {
		fmt.Printf("Unrecognized date %q, expected e.g. %q\n", strings.Join(args, " "), "May 10, 2026")
		os.Exit(1)
	}

	appt, err := app.appointments.ForDate(context.Background(), day)
	if err != nil {
		exitForError(err)
	}
	if appt == nil {
		fmt.Printf("No appointments on %s.\n", day.Format(schedule.DateLayout))
		return
	}

	fmt.Printf("On %s:\n", day.Format(schedule.DateLayout))
	printAppointment(appt)
}

// runReminders re-arms persisted notifications and runs the recurring
// reminders in the foreground until interrupted.
func (app *App) runReminders() {
	user, ok := app.session.Current()
	if !ok {
		fmt.Println("Sign in first: myhealth login -email <email>")
		os.Exit(1)
	}

	if err := app.session.SetNotificationsEnabled(true); err != nil {
		app.logger.Fatal("Failed to enable notifications", zap.Error(err))
	}

	restored, err := app.scheduler.Restore()
	if err != nil {
		app.logger.Fatal("Failed to restore scheduled notifications", zap.Error(err))
	}

	runner := notify.NewReminderRunner(app.config.Notifications, app.store, app.session,
		&notify.LogSink{Log: app.logger}, app.logger)
	if err := runner.Start(); err != nil {
		app.logger.Fatal("Failed to start reminder runner", zap.Error(err))
	}

	fmt.Printf("Reminders running for %s. Restored %d scheduled notification(s). Ctrl+C to stop.\n",
		user.Name, restored)
	if !app.scheduler.CanScheduleExact() {
		fmt.Println("Note: exact alarms are disabled in config; appointment reminders will not fire.")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	runner.Stop()
	app.logger.Info("Shutting down...")
}

func (app *App) handleStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print the raw counter exposition")
	fs.Parse(args)

	fmt.Println("MyHealth Status:")
	fmt.Println("================")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Data directory: %s\n", app.config.Storage.DataDir)

	if user, ok := app.session.Current(); ok {
		fmt.Printf("Signed in: %s <%s>\n", user.Name, user.Email)
	} else {
		fmt.Println("Signed in: no")
	}
	fmt.Printf("Notifications enabled: %v\n", app.session.NotificationsEnabled())
	fmt.Printf("Exact alarms allowed: %v\n", app.config.Notifications.ExactAlarms)

	pending, err := app.store.PendingScheduledNotifications()
	if err == nil {
		fmt.Printf("Pending scheduled notifications: %d\n", len(pending))
	}

	if *verbose {
		fmt.Println()
		fmt.Print(metrics.Exposition())
	}
}

// scheduleAppointmentReminder arms a notification one hour before the
// appointment starts, when that instant is still in the future.
func (app *App) scheduleAppointmentReminder(appt *store.Appointment) {
	if !app.scheduler.CanScheduleExact() {
		return
	}

	start, err := time.ParseInLocation(schedule.DateLayout+" "+schedule.TimeLayout,
		appt.Date+" "+appt.StartTime, time.Local)
	if err != nil {
		return
	}

	remindAt := start.Add(-time.Hour)
	if !remindAt.After(time.Now()) {
		return
	}

	message := fmt.Sprintf("%s (%s) at %s, %s", appt.DoctorName, appt.Specialty, appt.StartTime, appt.Location)
	err = app.scheduler.Schedule(appointmentReminderID(appt.ID), appt.UserID, remindAt,
		"Upcoming Appointment", message)
	if err != nil {
		app.logger.Warn("Failed to schedule appointment reminder", zap.Int("appointment_id", appt.ID), zap.Error(err))
		return
	}
	fmt.Printf("Reminder set for %s.\n", remindAt.Format("January 2, 2006 15:04"))
}

func appointmentReminderID(apptID int) string {
	return fmt.Sprintf("appt:%d", apptID)
}

func printAppointment(appt *store.Appointment) {
	fmt.Printf("  #%d  %s (%s)  %s %s-%s  %s\n",
		appt.ID, appt.DoctorName, appt.Specialty, appt.Date, appt.StartTime, appt.EndTime, appt.Location)
}

// stdinReader is shared across prompts so piped input is not lost to a
// previous prompt's buffer.
var stdinReader = bufio.NewReader(os.Stdin)

func promptPassword(prompt string) string {
	fmt.Print(prompt)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Printf("Error reading password: %v\n", err)
			os.Exit(1)
		}
		return string(password)
	}

	line, err := stdinReader.ReadString('\n')
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		os.Exit(1)
	}
	return strings.TrimRight(line, "\r\n")
}

func exitForError(err error) {
	if errors.Is(err, apperrors.ErrNoSession) {
		fmt.Println("Sign in first: myhealth login -email <email>")
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func printAppointmentsHelp() {
	fmt.Println("Appointment Commands:")
	fmt.Println()
	fmt.Println("  myhealth appointments add -doctor <name> -specialty <s> \\")
	fmt.Println(`      -date "May 10, 2026" -start 14:00 -end 14:30 -location <place>`)
	fmt.Println("  myhealth appointments list       Show next, upcoming, and past")
	fmt.Println("  myhealth appointments next       Show the next appointment")
	fmt.Println("  myhealth appointments cancel -id <id>")
}

func printExtendedHelp() {
	fmt.Println("MyHealth - Personal Health Tracker")
	fmt.Println()
	fmt.Println("Account:")
	fmt.Println("  myhealth register -name <name> -email <email>")
	fmt.Println("  myhealth login -email <email> [-remember]")
	fmt.Println("  myhealth logout")
	fmt.Println()
	fmt.Println("Health:")
	fmt.Println("  myhealth profile                 Show profile, BMI, blood oxygen")
	fmt.Println("  myhealth health set [flags]      Record health data")
	fmt.Println()
	fmt.Println("Appointments:")
	fmt.Println("  myhealth appointments add        Schedule an appointment")
	fmt.Println("  myhealth appointments list       List appointments")
	fmt.Println("  myhealth appointments next       Show the next appointment")
	fmt.Println("  myhealth appointments cancel     Cancel an appointment")
	fmt.Println(`  myhealth calendar "<date>"       Earliest appointment on a date`)
	fmt.Println()
	fmt.Println("Reminders & Diagnostics:")
	fmt.Println("  myhealth remind                  Run reminders in the foreground")
	fmt.Println("  myhealth status [-v]             Show current status")
	fmt.Println("  myhealth version                 Show version")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config <path>          Path to config file")
	fmt.Println("  -data <path>            Path to data directory")
}
