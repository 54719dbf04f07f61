package tianyancha

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Login fills the phone/password form on the landing page and submits it. The
// CAPTCHA that follows is left to the operator.
func (c *Client) Login(ctx context.Context, phone, password string) error {
	if phone == "" || password == "" {
		return errors.New("login: phone and password are required")
	}
	page := c.page.Context(ctx).Timeout(c.timeout)

	steps := []struct {
		name string
		run  func() error
	}{
		{"open login dialog", func() error { return c.clickR(page, "a,span,div,button", `^\s*登录/注册\s*$`) }},
		{"switch login mode", func() error { return c.click(page, ".login-toggle") }},
		{"fill phone", func() error { return c.fill(page, `input[placeholder="请输入中国大陆手机号"]`, phone) }},
		{"choose password login", func() error { return c.clickR(page, "a,span,div", `^\s*密码登录\s*$`) }},
		{"fill password", func() error { return c.fill(page, `input[placeholder="请输入登录密码"]`, password) }},
		{"accept agreement", func() error { return c.clickR(page, "label,span,div", `我已阅读并同意`) }},
		{"submit", func() error { return c.clickR(page, "button,div", `^\s*登录\s*$`) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return fmt.Errorf("login: %s: %w", s.name, err)
		}
	}
	c.log.Info("login form submitted")
	return nil
}

// WaitForOperator blocks until a line is read from in.
func (c *Client) WaitForOperator(in io.Reader, out io.Writer) error {
	c.log.Info("waiting for CAPTCHA to be solved manually")
	if out != nil {
		fmt.Fprint(out, "Paused! Solve the CAPTCHA manually and press Enter to continue...")
	}
	if in == nil {
		return nil
	}
	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read operator confirmation: %w", err)
	}
	return nil
}

func (c *Client) click(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (c *Client) clickR(page *rod.Page, selector, pattern string) error {
	el, err := page.ElementR(selector, pattern)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (c *Client) fill(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}
