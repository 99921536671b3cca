package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

var (
	readLineFunc = readLine // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	db       *sql.DB
	stdSvc   *student.Service
	attSvc   *attendance.Service
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                       - run a goose migration command (up, down, status, ...)")
	fmt.Println("  addstudent -prn PRN -name NAME [-email EMAIL] - register a student")
	fmt.Println("  setzone -lat LAT -lng LNG -radius METERS     - set the allowed check-in zone")
	fmt.Println("  window open|close                            - open or close the attendance window")
	fmt.Println("  clearrecords [-yes]                          - delete every check-in attempt")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentPRN := addStudentCmd.String("prn", "", "The student's registration number.")
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentEmail := addStudentCmd.String("email", "", "Optional email, for check-in receipts.")

	setZoneCmd := flag.NewFlagSet("setzone", flag.ContinueOnError)
	setZoneLat := setZoneCmd.Float64("lat", 0, "Latitude of the zone center.")
	setZoneLng := setZoneCmd.Float64("lng", 0, "Longitude of the zone center.")
	setZoneRadius := setZoneCmd.Float64("radius", -1, "Zone radius, in meters.")

	clearCmd := flag.NewFlagSet("clearrecords", flag.ContinueOnError)
	clearYes := clearCmd.Bool("yes", false, "Do not ask for confirmation.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate up|up-by-one|up-to|down|down-to|redo|reset|status|version|create|fix [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addStudentPRN == "" || *addStudentName == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(ctx, *addStudentPRN, *addStudentName, *addStudentEmail)

	case "setzone":
		if err := setZoneCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		var latSet, lngSet bool
		setZoneCmd.Visit(func(f *flag.Flag) {
			latSet = latSet || f.Name == "lat"
			lngSet = lngSet || f.Name == "lng"
		})
		if !latSet || !lngSet || *setZoneRadius < 0 {
			setZoneCmd.Usage()
			return errHelp
		}
		return cli.setZone(ctx, *setZoneLat, *setZoneLng, *setZoneRadius)

	case "window":
		if len(args) < 3 || !(args[2] == "open" || args[2] == "close") {
			fmt.Println("Usage: window open|close")
			return errHelp
		}
		return cli.setWindow(ctx, args[2] == "open")

	case "clearrecords":
		if err := clearCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if !*clearYes {
			fmt.Print("This deletes every check-in attempt. Type 'yes' to confirm: ")
			answer, err := readLineFunc()
			if err != nil {
				return err
			}
			if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
				return errAborted
			}
		}
		return cli.clearRecords(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}

func readLine() (string, error) {
	return bufio.NewReader(os.Stdin).ReadString('\n')
}
