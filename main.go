package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/aaronpeng2020/spext/internal/app"
	"github.com/aaronpeng2020/spext/internal/config"
	"github.com/aaronpeng2020/spext/internal/logging"
)

func usage() {
	programName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `用法: %s [选项]

按住或切换全局热键进行录音，语音识别（可选翻译）后自动粘贴到按键时光标所在的窗口。
每个热键绑定一个配置档（profile），配置档保存在 profiles.json 中，修改后自动生效。

选项:
[自定义配置文件]
  -config <string>
        指定配置文件（JSON），若未提供则默认读取 ./config.json（不存在则生成默认文件并退出）
  -file <string>
        指定音频文件，直接转录已有音频并写出 .txt，不安装热键。
  -output <string>
        搭配 -file 使用，指定输出 txt 路径（默认与输入文件同名）。
  -profile-id <string>
        搭配 -file 使用，指定使用的配置档 ID（默认使用活动配置档）。

[API 端点配置]
  -transcribe-endpoint <string>
        语音转写接口 URL (e.g. https://api.openai.com/v1/audio/transcriptions)
  -chat-endpoint <string>
        翻译所用 chat-completion API 基址 (e.g. https://api.openai.com/v1)
  -api-key <string>
        两个端点共用的 API Key（Bearer）
  -whisper-api-key <string>
        转写端点专用 Key（优先于 -api-key）
  -chat-api-key <string>
        翻译端点专用 Key（优先于 -api-key）
  -whisper-model <string>
        转写模型名称（默认 whisper-1）
  -chat-model <string>
        翻译模型名称（默认 gpt-4o-mini）
  -text-path <string>
        JSON 路径，用于从转写返回的 JSON 中抽取文本（点分 + 数组下标语法）
        默认: "text"
        示例:
          "text"
          "results[0].alternatives[0].transcript"

[录音配置]
  -channels <int>
        音频通道数（默认 1）
  -sampling-rate <int>
        采样率（Hz，默认 16000 Hz）
  -sampling-rate-depth <int>
        采样精度（bits，默认 16；允许值：8,16,24,32）
  -mute-while-recording <true|false>
        录音期间静音系统播放，结束后恢复（默认开启）

[网络请求配置]
  -request-timeout <int>
        转写请求超时秒数（默认 30）
  -chat-timeout <int>
        翻译请求超时秒数（默认 30）
  -max-retry <int>
        转写最大重试次数（默认 3，仅对 429/超时/连接错误重试，延迟线性递增）
  -retry-base-delay <float>
        重试基准延迟秒（默认 0.5）
  -enable-http2 <true|false>
        是否启用 HTTP/2（默认开启）
  -verify-ssl <true|false>
        是否验证 HTTPS 证书（默认开启）。设置为 false 时会跳过 TLS 证书验证（不安全）。

[配置档与日志]
  -profile-dir <string>
        profiles.json 所在目录（默认用户配置目录下的 spext/）
  -log-file <string>
        额外输出 JSON 日志到指定文件
  -log-level <string>
        日志级别（debug, info, warn, error；默认 info）

[系统通知配置]
  -notification <true|false>
        是否启用系统通知（默认开启）
  -request-failed-notification <true|false>
        重试耗尽后是否在目标窗口粘贴 "[request failed]" 标记（默认开启）

[DEBUG 配置]
  -record-debug <true|false>
        是否启用录音子系统的调试输出（默认关闭）。
  -hotkey-debug <true|false>
        是否启用热键事件的调试输出（默认关闭）。
  -upload-debug <true|false>
        是否启用转写请求的调试输出（默认关闭）。

  -h, -help, -?
        显示帮助信息

热键写法（在 profiles.json 的 hotkey 字段中，大小写不敏感）:
    - 功能键: F1..F24 （示例: "F2"）
    - 字母键: a..z；顶排数字键: 0..9
    - 命名键: esc/escape, enter/return, space, tab, backspace, insert, delete, home, end, pageup, pagedown, left, up, right, down
    - 小键盘: numpad0..numpad9（别名 num0..num9, kp0..kp9）, add/plus, subtract/minus
    - 带修饰键的写法（如 "ctrl+q"）会退化为末尾主键，修饰键不参与匹配。

示例:
  %s -config config.json
  %s -api-key sk-xxx -chat-model gpt-4o
  %s -file meeting.wav -profile-id default-auto -output meeting.txt

说明:
- 配置优先级：命令行标志 > 配置文件 > 默认值
- 同一热键同时只能绑定一个启用的配置档，冲突的绑定会被跳过并告警
- 录音/识别进行中按下其它热键会被丢弃（忙碌保护）

`, programName, programName, programName, programName)
}

func main() {
	flagConfigPath := flag.String("config", "", "path to config JSON")
	flagFilePath := flag.String("file", "", "audio file to transcribe directly")
	flagProfileID := flag.String("profile-id", "", "profile id for -file mode")
	fv := config.BindFlags(flag.CommandLine)

	help := flag.Bool("h", false, "show help")
	help2 := flag.Bool("help", false, "show help")
	help3 := flag.Bool("?", false, "show help")

	flag.Usage = usage
	flag.Parse()
	if *help || *help2 || *help3 {
		usage()
		return
	}

	var cfg config.Config
	if *flagConfigPath != "" {
		loaded, err := config.Load(*flagConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %q: %v\n", *flagConfigPath, err)
			os.Exit(1)
		}
		cfg = loaded
	} else if _, err := os.Stat("config.json"); err == nil {
		loaded, err := config.Load("config.json")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load existing config.json: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else if os.IsNotExist(err) {
		if !fv.AnySet() && *flagFilePath == "" {
			if err := config.SaveDefault("config.json"); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write default config: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("default config created at config.json. Please edit it and re-run.")
			return
		}
		cfg = config.DefaultConfig()
	} else {
		fmt.Fprintf(os.Stderr, "failed to stat config.json: %v\n", err)
		os.Exit(1)
	}
	config.ApplyFlags(&cfg, fv)

	if err := config.Validate(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flagFilePath != "" {
		if err := app.RunFileMode(ctx, cfg, log, *flagFilePath, fv.OutputPath, *flagProfileID); err != nil {
			log.Error("file transcription failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("daemon failed", zap.Error(err))
		os.Exit(1)
	}
}
