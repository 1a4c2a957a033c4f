package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unfoldingWord-dev/uwcatalog/internal/utils"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/catalog"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uwcatalog",
	Short: "Rebuilds the unfoldingWord translationStudio and uw catalogs.",
	Long: `uwcatalog fetches the OBS catalog, the Bible resource status feeds and the
language names feed, and regenerates every catalog file the translationStudio
API and the legacy uw catalog serve.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.uwcatalog.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().String("loglevel", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// setDefaults registers a default for every config key so a freshly
// written config file lists them all.
func setDefaults(v *viper.Viper) {
	d := catalog.DefaultConfig()
	pairs := make([]string, 0, len(d.Pairs))
	for _, p := range d.Pairs {
		pairs = append(pairs, p.String())
	}

	v.SetDefault("obs.api", d.OBSAPI)
	v.SetDefault("obs.catalog_url", d.OBSCatalogURL)
	v.SetDefault("obs.audio_url", d.OBSAudioURL)
	v.SetDefault("ts.api", d.TSAPI)
	v.SetDefault("ts.root", d.TSRoot)
	v.SetDefault("uw.catalog_path", d.UWCatalogPath)
	v.SetDefault("usfm.api", d.USFMAPI)
	v.SetDefault("bible.status_url", d.StatusURL)
	v.SetDefault("bible.slugs", pairs)
	v.SetDefault("bible.books", d.Books)
	v.SetDefault("languages.url", d.LanguagesURL)
	v.SetDefault("discovery.root", d.DiscoveryRoot)
	v.SetDefault("discovery.versions", d.DiscoveryVersions)
	v.SetDefault("fetch.rps", 0)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", whttp.USER_AGENT)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".uwcatalog")
		viper.SetConfigType("yaml")
	}

	// UWCATALOG_TS_ROOT overrides ts.root, and so on.
	viper.SetEnvPrefix("uwcatalog")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".uwcatalog.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
