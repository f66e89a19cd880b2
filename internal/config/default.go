package config

// DefaultYAML is written by `studybuddy config` when no file exists.
const DefaultYAML = `# log level: debug, info, warn, error
log_level: info

speech:
  # direct playback backend: auto, local, none
  direct: auto
  # rendering backend: auto, google, gtts-cli, none
  renderer: auto
  language: en
  slow: false
  # local voice rate in words per minute
  rate: 150
  # voice: ""
  # audio output: auto, production, mock
  audio: auto
  volume: 1.0
  # pause before new speech starts so the device can release
  preempt_delay: 50ms
  max_chunk: 200
  # rendered audio cache in MB (0 disables)
  cache_mb: 32
  cache_ttl: 1h
  # compressed clips kept between runs in MB (0 disables)
  disk_cache_mb: 0
  # defaults to the user cache directory
  disk_cache_dir: ""

llm:
  model: llama-3.3-70b-versatile
  whisper_model: whisper-large-v3
  max_tokens: 2048
  timeout: 60s

server:
  addr: 127.0.0.1:8501
  browser_limit: 5000
  server_limit: 1500
  body_limit_mb: 25

chat:
  # speak tutor replies
  voice: true
  # glamour style name or JSON path
  style: auto
  # word-wrap width (0 = terminal width)
  width: 0
`
