package cli

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Options struct {
	Config string
}

// persistentKeys maps viper keys to the root flags that override them.
var persistentKeys = map[string]string{
	"llm.url":          "url",
	"llm.token":        "token",
	"proxy.url":        "proxy",
	"log.level":        "log-level",
	"metrics.textfile": "metrics-textfile",
}

func NewRootCmd() *cobra.Command {
	opts := &Options{}
	v := viper.New()
	root := &cobra.Command{
		Use:          "gptcli",
		Short:        "gptcli - OpenAI image, transcription and chat client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Root().PersistentFlags(), persistentKeys); err != nil {
				return err
			}
			return initConfig(v, opts.Config)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.Config, "config", "", "config file (default: ./gptcli.yaml)")
	flags.String("url", "", "override base url")
	flags.String("token", "", "override access token")
	flags.String("proxy", "", "proxy url, or env to use HTTP_PROXY/HTTPS_PROXY")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("metrics-textfile", "", "write prometheus metrics to this file on exit")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newChatCmd(v))
	root.AddCommand(newImageCmd(v))
	root.AddCommand(newTranscribeCmd(v))
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag %q is not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

func initConfig(v *viper.Viper, configFile string) error {
	// A missing .env is normal; variables already set in the environment win.
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("gptcli")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/gptcli")
	}

	v.SetEnvPrefix("GPTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
