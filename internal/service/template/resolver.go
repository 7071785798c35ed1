package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gitee.com/flycash/notification-service/internal/domain"
	"github.com/gotomicro/ego/core/elog"
	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheExpiration = time.Minute
	cacheCleanup    = 5 * time.Minute
)

// 去掉模版名末尾的渠道后缀：_email、-email、_sms、-sms
var channelSuffixRe = regexp.MustCompile(`(?i)[_-](?:email|sms)$`)

// Resolver 模版解析器。按固定优先级在候选目录中定位模版文件并渲染，
// 邮件和短信各自独立查找（.html / .txt），同一个逻辑模版名可以同时有两份。
type Resolver struct {
	dirs   []string
	cache  *gocache.Cache
	logger *elog.Component
}

// NewResolver 创建模版解析器。extraDirs 优先于内置候选目录。
func NewResolver(extraDirs []string) *Resolver {
	dirs := make([]string, 0, len(extraDirs)+3)
	dirs = append(dirs, extraDirs...)
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "templates"))
	}
	dirs = append(dirs, filepath.Join("src", "templates"), "templates")
	return &Resolver{
		dirs:   dirs,
		cache:  gocache.New(cacheExpiration, cacheCleanup),
		logger: elog.DefaultLogger,
	}
}

// Render 渲染模版。永远不向调用方返回错误：
// 模版找不到或读不出来时记录告警，退化为返回 data 的 JSON 序列化结果，
// 发送流程带着降级后的内容继续走，而不是中断。
func (r *Resolver) Render(name string, channel domain.Channel, data map[string]any) string {
	tpl, err := r.load(name, channel)
	if err != nil {
		r.logger.Warn("加载模版失败，使用数据兜底",
			elog.String("template", name),
			elog.String("channel", string(channel)),
			elog.FieldErr(err))
		raw, merr := json.Marshal(data)
		if merr != nil {
			return "{}"
		}
		return string(raw)
	}
	return substitute(tpl, data)
}

func (r *Resolver) load(name string, channel domain.Channel) (string, error) {
	ext := extension(channel)
	base := stripExtension(name)
	explicit := strings.EqualFold(filepath.Ext(name), ext)

	for _, dir := range r.dirs {
		// 调用方直接传了带扩展名的文件名，先按原样找
		if explicit {
			if tpl, err := r.readFile(filepath.Join(dir, name)); err == nil {
				return tpl, nil
			}
		}
		for _, variant := range nameVariants(base) {
			if tpl, err := r.readFile(filepath.Join(dir, variant+ext)); err == nil {
				return tpl, nil
			}
		}
	}
	return "", fmt.Errorf("模版文件不存在: %s", name)
}

func (r *Resolver) readFile(path string) (string, error) {
	if cached, ok := r.cache.Get(path); ok {
		return cached.(string), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	tpl := string(raw)
	r.cache.Set(path, tpl, gocache.DefaultExpiration)
	return tpl, nil
}

func extension(channel domain.Channel) string {
	if channel == domain.ChannelSMS {
		return ".txt"
	}
	return ".html"
}

func stripExtension(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".txt") {
		return name[:strings.LastIndex(name, ".")]
	}
	return name
}

// nameVariants 按固定优先级生成候选名：原名、连字符/下划线互换、
// 去掉渠道后缀的形式及其互换形式。保序去重。
func nameVariants(base string) []string {
	ordered := make([]string, 0, 6)
	seen := make(map[string]struct{}, 6)
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		ordered = append(ordered, v)
	}

	add(base)
	add(strings.ReplaceAll(base, "_", "-"))
	add(strings.ReplaceAll(base, "-", "_"))

	stripped := channelSuffixRe.ReplaceAllString(base, "")
	add(stripped)
	add(strings.ReplaceAll(stripped, "_", "-"))
	add(strings.ReplaceAll(stripped, "-", "_"))

	return ordered
}

// substitute 把所有 {{ key }} 形式的占位符（key 两侧允许空白）替换为
// data[key] 的字符串形式。data 里没有的占位符原样保留，不做任何转义。
func substitute(tpl string, data map[string]any) string {
	for k, v := range data {
		re := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(k) + `\s*\}\}`)
		tpl = re.ReplaceAllString(tpl, coerce(v))
	}
	return tpl
}

func coerce(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
