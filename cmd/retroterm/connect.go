package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/moodclient/retroterm"
	"github.com/moodclient/retroterm/emulation"
	"github.com/moodclient/retroterm/keymap"
	"github.com/moodclient/retroterm/transfer"
	"github.com/moodclient/retroterm/utils"
)

var (
	emulationName string
	useSerial     bool
	baudRate      int
	answerBack    string
	keymapPath    string
	username      string
	password      string
	telnetASCII   bool
	flavorName    string
	downloadDir   string
	uploadFiles   []string
	logPath       string
)

var connectCmd = &cobra.Command{
	Use:   "connect <host:port|device>",
	Short: "Connect to a remote system",
	Long: `Connect to a remote system over TCP or a serial line.

Examples:
  # Connect to a BBS over TCP with the ANSI.SYS dialect
  retroterm connect bbs.example.org:23 -e ansi

  # Connect over a serial line at 9600 baud
  retroterm connect /dev/ttyUSB0 --serial -b 9600

  # Arm Ymodem download into the current directory (press PgDn)
  retroterm connect bbs.example.org:23 --download .`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVarP(&emulationName, "emulation", "e", "vt100", "dialect (tty, debug, ansi, vt52, vt100, linux, xterm, linux-utf8, xterm-utf8)")
	connectCmd.Flags().BoolVar(&useSerial, "serial", false, "treat the target as a serial device")
	connectCmd.Flags().IntVarP(&baudRate, "baud", "b", 115200, "baud rate for serial connections")
	connectCmd.Flags().StringVar(&answerBack, "answerback", "", "string sent in response to ENQ")
	connectCmd.Flags().StringVarP(&keymapPath, "keymap", "k", "", "user keymap file")
	connectCmd.Flags().StringVar(&username, "username", "", "value of the $USERNAME keymap macro")
	connectCmd.Flags().StringVar(&password, "password", "", "value of the $PASSWORD keymap macro")
	connectCmd.Flags().BoolVar(&telnetASCII, "telnet-ascii", false, "send CR as CR LF for ASCII-mode telnet")
	connectCmd.Flags().StringVar(&flavorName, "flavor", "ymodem", "transfer flavor (xmodem, xmodem-relaxed, xmodem-crc, xmodem-1k, xmodem-1k-g, ymodem, ymodem-g)")
	connectCmd.Flags().StringVar(&downloadDir, "download", "", "directory to receive files into; PgDn starts the download")
	connectCmd.Flags().StringSliceVar(&uploadFiles, "upload", nil, "files to send; PgUp starts the upload")
	connectCmd.Flags().StringVar(&logPath, "log", "", "write a debug log to this file")
}

var emulationsByName = map[string]emulation.Emulation{
	"tty":        emulation.TTY,
	"debug":      emulation.Debug,
	"ansi":       emulation.ANSI,
	"vt52":       emulation.VT52,
	"vt100":      emulation.VT100,
	"linux":      emulation.Linux,
	"xterm":      emulation.XTerm,
	"linux-utf8": emulation.LinuxUTF8,
	"xterm-utf8": emulation.XTermUTF8,
}

var flavorsByName = map[string]transfer.Flavor{
	"xmodem":         transfer.XModem,
	"xmodem-relaxed": transfer.XModemRelaxed,
	"xmodem-crc":     transfer.XModemCRC,
	"xmodem-1k":      transfer.XModem1K,
	"xmodem-1k-g":    transfer.XModem1KG,
	"ymodem":         transfer.YModem,
	"ymodem-g":       transfer.YModemG,
}

func runConnect(cmd *cobra.Command, args []string) error {
	dialect, ok := emulationsByName[strings.ToLower(emulationName)]
	if !ok {
		return fmt.Errorf("unknown emulation %q", emulationName)
	}

	flavor, ok := flavorsByName[strings.ToLower(flavorName)]
	if !ok {
		return fmt.Errorf("unknown transfer flavor %q", flavorName)
	}

	if verbose {
		fmt.Printf("Connecting to %s (%s)...\n", args[0], dialect)
	}

	conn, err := dial(args[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	lipgloss.EnableLegacyWindowsANSI(os.Stdout)
	lipgloss.EnableLegacyWindowsANSI(os.Stdin)

	state, err := term.MakeRaw(os.Stdin.Fd())
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(os.Stdin.Fd(), state)

	width, height, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		width, height = 80, 24
	}
	// Reserve the bottom line for the status bar
	if height > 1 {
		height--
	}

	config := retroterm.Config{
		Width:       width,
		Height:      height,
		Emulation:   dialect,
		AnswerBack:  answerBack,
		Username:    username,
		Password:    password,
		TelnetASCII: telnetASCII,
	}

	if keymapPath != "" {
		config.DefaultKeymap, err = keymap.LoadFile(keymapPath)
		if err != nil {
			return fmt.Errorf("loading keymap: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := retroterm.NewSession(ctx, conn, conn, config)

	if logPath != "" {
		logFile, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		defer logFile.Close()

		logger := slog.New(slog.NewTextHandler(logFile, nil))
		utils.NewDebugLog(session, logger, utils.DebugLogConfig{
			EncounteredErrorLevel: slog.LevelError,
			EmulatorResponseLevel: slog.LevelDebug,
			TransferStatusLevel:   slog.LevelInfo,
			BellLevel:             slog.LevelDebug,
			WindowTitleLevel:      slog.LevelDebug,
			MusicSequenceLevel:    slog.LevelDebug,
		})
	}

	client := newClient(session, os.Stdout, flavor, downloadDir, uploadFiles)
	client.run(ctx, cancel, os.Stdin)

	return session.WaitForExit()
}

// dial opens the transport: a serial device with --serial, TCP otherwise.
func dial(target string) (io.ReadWriteCloser, error) {
	if useSerial {
		port, err := serial.Open(target, &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", target, err)
		}
		return port, nil
	}

	conn, err := net.Dial("tcp", target)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", target, err)
	}
	return conn, nil
}
