package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "login":
		err = cmdLogin(os.Args[2:])
	case "register":
		err = cmdRegister(os.Args[2:])
	case "logout":
		err = cmdLogout()
	case "whoami":
		err = cmdWhoami()
	case "home":
		err = cmdHome()
	case "courses":
		err = cmdCourses()
	case "my":
		err = cmdMyCourses()
	case "enroll":
		err = cmdEnroll(os.Args[2:])
	case "leave":
		err = cmdLeave(os.Args[2:])
	case "profile":
		err = cmdProfile(os.Args[2:])
	case "config":
		err = cmdConfig()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("edu %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Edu - Course Enrollment Client

Usage:
  edu <command> [arguments]

Account Commands:
  login [email]       Sign in and start a session
  register [email]    Create an account and sign in
  logout              End the current session
  whoami              Show the signed-in user
  home                Show where a fresh visit would land

Course Commands:
  courses             List the course catalog
  my                  List your enrolled courses
  enroll <id>         Enroll in a course
  leave <id>          Leave a course

Profile Commands:
  profile             Show your profile
  profile update      Change email or display name
  profile password    Change your password

Other:
  config              Show client configuration
  help                Show this help message
  version             Show version information

Examples:
  edu register alice@example.com  # Create an account
  edu courses                     # Browse the catalog
  edu enroll 3                    # Enroll in course 3`)
}
