package alert

import "github.com/langchou/h2gazer/internal/models"

// Banner 告警横幅显示状态
//
// Last 记录最近一次出现的告警条件，Visible 记录是否被用户关闭。
// 关闭不清空 Last，只有告警条件变化才会重新显示。
type Banner struct {
	Last    *models.Alert `json:"last"`
	Visible bool          `json:"visible"`
}

// NewBanner 初始状态可见
func NewBanner() Banner {
	return Banner{Visible: true}
}

// AlertChanged 告警重新计算后调用
func (b Banner) AlertChanged(next *models.Alert) Banner {
	if b.Last.SameAs(next) {
		return b
	}
	return Banner{Last: next, Visible: true}
}

// Dismissed 用户关闭横幅
func (b Banner) Dismissed() Banner {
	b.Visible = false
	return b
}

// Shown 当前应显示的告警
func (b Banner) Shown() *models.Alert {
	if !b.Visible {
		return nil
	}
	return b.Last
}
