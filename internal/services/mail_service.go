package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"gorm.io/gorm"
)

type MailService struct {
	Host    string
	Port    string
	User    string
	Pass    string
	From    string
	SiteURL string
	Enabled bool
}

func NewMailService(cfg config.Config) *MailService {
	enabled := cfg.SMTPHost != "" && cfg.SMTPPort != "" && cfg.SMTPUser != "" &&
		cfg.SMTPPass != "" && cfg.SMTPFrom != ""
	if !enabled {
		log.Println("⚠️ MailService disabled: Missing SMTP configuration.")
	}

	return &MailService{
		Host:    cfg.SMTPHost,
		Port:    cfg.SMTPPort,
		User:    cfg.SMTPUser,
		Pass:    cfg.SMTPPass,
		From:    cfg.SMTPFrom,
		SiteURL: cfg.SiteURL,
		Enabled: enabled,
	}
}

// send 同步投递。未配置 SMTP 时当作空操作成功（只记日志的退化模式）
func (s *MailService) send(to []string, subject string, body string) error {
	if !s.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: MusicLines <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

	if err := smtp.SendMail(addr, auth, s.From, to, msg); err != nil {
		log.Printf("❌ Failed to send email to %v: %v", to, err)
		return err
	}
	log.Printf("✅ Email sent to %v: %s", to, subject)
	return nil
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	go func() {
		_ = s.send(to, subject, body)
	}()
}

// 邮件模板内联在二进制里，不依赖运行目录
var (
	activationTmpl = template.Must(template.New("activation").Parse(`
<p>欢迎加入 MusicLines！</p>
<p>点击下面的链接激活你的账号（3 天内有效）：</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>如果这不是你本人的操作，忽略本邮件即可。</p>`))

	emailChangeTmpl = template.Must(template.New("email_change").Parse(`
<p>你正在把 MusicLines 账号换绑到这个邮箱。</p>
<p>点击下面的链接确认（3 天内有效）：</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>如果这不是你本人的操作，忽略本邮件即可，账号邮箱不会变动。</p>`))

	digestTmpl = template.Must(template.New("digest").Parse(`
<p>你有 {{len .Items}} 条未读动态：</p>
<ul>
{{range .Items}}<li>{{.Description}}</li>
{{end}}</ul>
<p><a href="{{.Link}}">去看看</a></p>`))
)

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (s *MailService) SendAccountActivationEmail(email, token string) {
	body, err := renderTemplate(activationTmpl, map[string]string{
		"Link": s.SiteURL + "/auth/activate?token=" + token,
	})
	if err != nil {
		log.Printf("Error rendering activation email: %v", err)
		return
	}
	s.sendAsync([]string{email}, "欢迎加入 MusicLines，请激活你的账号", body)
}

func (s *MailService) SendEmailChangeEmail(email, token string) {
	body, err := renderTemplate(emailChangeTmpl, map[string]string{
		"Link": s.SiteURL + "/account/confirm-email?token=" + token,
	})
	if err != nil {
		log.Printf("Error rendering email change email: %v", err)
		return
	}
	s.sendAsync([]string{email}, "[MusicLines]安全提醒：确认你的新邮箱", body)
}

// SendNotificationDigest 给单个用户发未读动态摘要。
// 同步投递，调用方用返回值决定要不要翻 emailed 标记
func (s *MailService) SendNotificationDigest(email string, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	body, err := renderTemplate(digestTmpl, map[string]interface{}{
		"Items": items,
		"Link":  s.SiteURL + "/notifications",
	})
	if err != nil {
		log.Printf("Error rendering digest email: %v", err)
		return err
	}
	subject := fmt.Sprintf("🔔 你在 MusicLines 有 %d 条未读动态", len(items))
	return s.send([]string{email}, subject, body)
}

// NotificationEmitter 后台轮询未寄出的通知，按收件人聚成摘要邮件。
// 寄过的行翻 emailed 标记，不会重复打扰
type NotificationEmitter struct {
	DB       *gorm.DB
	Mail     *MailService
	Notify   *NotificationService
	Interval time.Duration
	stop     chan struct{}
}

func NewNotificationEmitter(conn *gorm.DB, mail *MailService, notify *NotificationService, interval time.Duration) *NotificationEmitter {
	return &NotificationEmitter{
		DB:       conn,
		Mail:     mail,
		Notify:   notify,
		Interval: interval,
		stop:     make(chan struct{}),
	}
}

func (e *NotificationEmitter) Start() {
	go func() {
		ticker := time.NewTicker(e.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := e.EmitOnce(); err != nil {
					log.Printf("Notification emitter pass failed: %v", err)
				}
			case <-e.stop:
				return
			}
		}
	}()
}

func (e *NotificationEmitter) Stop() {
	close(e.stop)
}

// EmitOnce 单轮派发：按收件人分组，摘要只含未读的，
// 已读的未发行同样翻掉 emailed，避免反复扫到。
// 投递失败的收件人不翻标记，下一轮重试（至少一次语义）
func (e *NotificationEmitter) EmitOnce() error {
	pending, err := e.Notify.AllUnsent(e.DB)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	byRecipient := make(map[uint][]models.Notification)
	for _, n := range pending {
		byRecipient[n.RecipientID] = append(byRecipient[n.RecipientID], n)
	}

	for recipientID, items := range byRecipient {
		var user models.User
		if err := e.DB.First(&user, recipientID).Error; err != nil {
			log.Printf("Skipping digest for missing user %d: %v", recipientID, err)
		} else if user.IsActive && user.Email != "" {
			unread := items[:0:0]
			for _, n := range items {
				if n.Unread {
					unread = append(unread, n)
				}
			}
			if err := e.Mail.SendNotificationDigest(user.Email, unread); err != nil {
				log.Printf("Digest to %s failed, will retry next pass: %v", user.Email, err)
				continue
			}
		}
		if err := e.Notify.MarkAsSent(e.DB, recipientID); err != nil {
			return err
		}
	}
	return nil
}
