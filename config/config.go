package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"
)

// DefaultDateFormat is the site date layout respondents type dates in: day/month/year.
const DefaultDateFormat = "2/1/2006"

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	DateFormat  string
	AdminUser   string
	AdminPass   string
	Debug       bool
}

func ParseFlags() (cfg Config, err error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number (default 80)")
	fs.StringVar(&cfg.DBUrl, "db-url", "questionnaire.sqlite", "path to SQLite3 DB file (default questionnaire.sqlite)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	fs.StringVar(&cfg.DateFormat, "date-format", DefaultDateFormat, "Go time layout of submitted dates (default 2/1/2006)")
	fs.StringVar(&cfg.AdminUser, "admin-user", "", "create or update this admin user at startup")
	fs.StringVar(&cfg.AdminPass, "admin-password", "", "password of -admin-user")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	err = fs.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	} else if cfg.AdminUser != "" && cfg.AdminPass == "" {
		err = errors.New("missing parameter -admin-password")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
