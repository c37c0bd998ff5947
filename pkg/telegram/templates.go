package telegram

import (
	"strings"
)

// 模板键
const (
	TemplateWelcome            = "welcome"
	TemplateReferralCreated    = "referral_created"
	TemplateCommissionEarned   = "commission_earned"
	TemplateCommissionApproved = "commission_approved"
	TemplatePayoutCompleted    = "payout_completed"
	TemplatePayoutFailed       = "payout_failed"
	TemplateDomainVerified     = "domain_verified"
	TemplateNotification       = "notification"
)

// DefaultLanguage 默认语言
const DefaultLanguage = "en"

// templates 按语言组织的消息模板，占位符形如 {name}
var templates = map[string]map[string]string{
	"en": {
		TemplateWelcome:            "<b>Welcome to EscortDollars!</b>\nYour affiliate account <b>{username}</b> is now active. Your referral code: <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>New referral!</b>\nA new user signed up with your referral code <code>{referral_code}</code>.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>New commission earned!</b>\nAmount: <b>€{amount}</b>\nStatus: pending review",
		TemplateCommissionApproved: "✅ <b>Commission approved</b>\nAmount: <b>€{amount}</b> is now available for payout.",
		TemplatePayoutCompleted:    "\U0001F389 <b>Payout completed</b>\nBatch <code>{batch_no}</code> for <b>€{amount}</b> has been sent via {method} to <code>{wallet}</code>.",
		TemplatePayoutFailed:       "⚠️ <b>Payout failed</b>\nBatch <code>{batch_no}</code> could not be processed: {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>Domain verified</b>\nYour custom domain <code>{domain}</code> has been verified and is now live.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"fr": {
		TemplateWelcome:            "<b>Bienvenue sur EscortDollars !</b>\nVotre compte d'affiliation <b>{username}</b> est actif. Votre code de parrainage : <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>Nouveau filleul !</b>\nUn nouvel utilisateur s'est inscrit avec votre code de parrainage <code>{referral_code}</code>.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>Nouvelle commission gagnée !</b>\nMontant : <b>{amount} €</b>\nStatut : en attente de validation",
		TemplateCommissionApproved: "✅ <b>Commission approuvée</b>\nLe montant de <b>{amount} €</b> est disponible pour le paiement.",
		TemplatePayoutCompleted:    "\U0001F389 <b>Paiement effectué</b>\nLe lot <code>{batch_no}</code> de <b>{amount} €</b> a été envoyé via {method} vers <code>{wallet}</code>.",
		TemplatePayoutFailed:       "⚠️ <b>Échec du paiement</b>\nLe lot <code>{batch_no}</code> n'a pas pu être traité : {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>Domaine vérifié</b>\nVotre domaine personnalisé <code>{domain}</code> a été vérifié et est maintenant en ligne.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"ru": {
		TemplateWelcome:            "<b>Добро пожаловать в EscortDollars!</b>\nВаш партнёрский аккаунт <b>{username}</b> активирован. Ваш реферальный код: <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>Новый реферал!</b>\nНовый пользователь зарегистрировался по вашему реферальному коду <code>{referral_code}</code>.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>Новая комиссия!</b>\nСумма: <b>€{amount}</b>\nСтатус: ожидает проверки",
		TemplateCommissionApproved: "✅ <b>Комиссия одобрена</b>\nСумма <b>€{amount}</b> доступна для вывода.",
		TemplatePayoutCompleted:    "\U0001F389 <b>Выплата завершена</b>\nПакет <code>{batch_no}</code> на сумму <b>€{amount}</b> отправлен через {method} на <code>{wallet}</code>.",
		TemplatePayoutFailed:       "⚠️ <b>Выплата не удалась</b>\nПакет <code>{batch_no}</code> не обработан: {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>Домен подтверждён</b>\nВаш домен <code>{domain}</code> подтверждён и теперь доступен.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"de": {
		TemplateWelcome:            "<b>Willkommen bei EscortDollars!</b>\nIhr Partnerkonto <b>{username}</b> ist jetzt aktiv. Ihr Empfehlungscode: <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>Neue Empfehlung!</b>\nEin neuer Nutzer hat sich mit Ihrem Empfehlungscode <code>{referral_code}</code> registriert.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>Neue Provision verdient!</b>\nBetrag: <b>{amount} €</b>\nStatus: wird geprüft",
		TemplateCommissionApproved: "✅ <b>Provision freigegeben</b>\nDer Betrag von <b>{amount} €</b> steht zur Auszahlung bereit.",
		TemplatePayoutCompleted:    "\U0001F389 <b>Auszahlung abgeschlossen</b>\nCharge <code>{batch_no}</code> über <b>{amount} €</b> wurde via {method} an <code>{wallet}</code> gesendet.",
		TemplatePayoutFailed:       "⚠️ <b>Auszahlung fehlgeschlagen</b>\nCharge <code>{batch_no}</code> konnte nicht verarbeitet werden: {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>Domain verifiziert</b>\nIhre eigene Domain <code>{domain}</code> wurde verifiziert und ist jetzt online.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"zh": {
		TemplateWelcome:            "<b>欢迎加入 EscortDollars！</b>\n您的推广账户 <b>{username}</b> 已激活。您的推荐码：<code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>新的推荐！</b>\n有新用户通过您的推荐码 <code>{referral_code}</code> 注册。",
		TemplateCommissionEarned:   "\U0001F4B0 <b>获得新佣金！</b>\n金额：<b>€{amount}</b>\n状态：等待审核",
		TemplateCommissionApproved: "✅ <b>佣金已审核通过</b>\n金额 <b>€{amount}</b> 现可申请结算。",
		TemplatePayoutCompleted:    "\U0001F389 <b>结算完成</b>\n批次 <code>{batch_no}</code> 共 <b>€{amount}</b> 已通过 {method} 发放至 <code>{wallet}</code>。",
		TemplatePayoutFailed:       "⚠️ <b>结算失败</b>\n批次 <code>{batch_no}</code> 处理失败：{reason}",
		TemplateDomainVerified:     "\U0001F310 <b>域名验证通过</b>\n您的自定义域名 <code>{domain}</code> 已通过验证并正式启用。",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"es": {
		TemplateWelcome:            "<b>¡Bienvenido a EscortDollars!</b>\nTu cuenta de afiliado <b>{username}</b> está activa. Tu código de referido: <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>¡Nuevo referido!</b>\nUn nuevo usuario se registró con tu código de referido <code>{referral_code}</code>.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>¡Nueva comisión ganada!</b>\nImporte: <b>{amount} €</b>\nEstado: pendiente de revisión",
		TemplateCommissionApproved: "✅ <b>Comisión aprobada</b>\nEl importe de <b>{amount} €</b> está disponible para el pago.",
		TemplatePayoutCompleted:    "\U0001F389 <b>Pago completado</b>\nEl lote <code>{batch_no}</code> de <b>{amount} €</b> fue enviado vía {method} a <code>{wallet}</code>.",
		TemplatePayoutFailed:       "⚠️ <b>Pago fallido</b>\nEl lote <code>{batch_no}</code> no pudo procesarse: {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>Dominio verificado</b>\nTu dominio personalizado <code>{domain}</code> ha sido verificado y ya está activo.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"it": {
		TemplateWelcome:            "<b>Benvenuto su EscortDollars!</b>\nIl tuo account affiliato <b>{username}</b> è attivo. Il tuo codice referral: <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>Nuovo referral!</b>\nUn nuovo utente si è registrato con il tuo codice referral <code>{referral_code}</code>.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>Nuova commissione guadagnata!</b>\nImporto: <b>{amount} €</b>\nStato: in attesa di revisione",
		TemplateCommissionApproved: "✅ <b>Commissione approvata</b>\nL'importo di <b>{amount} €</b> è disponibile per il pagamento.",
		TemplatePayoutCompleted:    "\U0001F389 <b>Pagamento completato</b>\nIl lotto <code>{batch_no}</code> di <b>{amount} €</b> è stato inviato via {method} a <code>{wallet}</code>.",
		TemplatePayoutFailed:       "⚠️ <b>Pagamento fallito</b>\nIl lotto <code>{batch_no}</code> non è stato elaborato: {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>Dominio verificato</b>\nIl tuo dominio personalizzato <code>{domain}</code> è stato verificato ed è ora attivo.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
	"ar": {
		TemplateWelcome:            "<b>مرحباً بك في EscortDollars!</b>\nتم تفعيل حساب الشراكة <b>{username}</b>. رمز الإحالة الخاص بك: <code>{referral_code}</code>",
		TemplateReferralCreated:    "\U0001F389 <b>إحالة جديدة!</b>\nقام مستخدم جديد بالتسجيل عبر رمز الإحالة الخاص بك <code>{referral_code}</code>.",
		TemplateCommissionEarned:   "\U0001F4B0 <b>عمولة جديدة!</b>\nالمبلغ: <b>€{amount}</b>\nالحالة: قيد المراجعة",
		TemplateCommissionApproved: "✅ <b>تمت الموافقة على العمولة</b>\nالمبلغ <b>€{amount}</b> متاح الآن للسحب.",
		TemplatePayoutCompleted:    "\U0001F389 <b>اكتملت التسوية</b>\nتم إرسال الدفعة <code>{batch_no}</code> بمبلغ <b>€{amount}</b> عبر {method} إلى <code>{wallet}</code>.",
		TemplatePayoutFailed:       "⚠️ <b>فشلت التسوية</b>\nتعذرت معالجة الدفعة <code>{batch_no}</code>: {reason}",
		TemplateDomainVerified:     "\U0001F310 <b>تم التحقق من النطاق</b>\nتم التحقق من نطاقك المخصص <code>{domain}</code> وهو الآن متاح.",
		TemplateNotification:       "<b>{title}</b>\n{message}",
	},
}

// SupportedLanguages 支持的语言列表
func SupportedLanguages() []string {
	langs := make([]string, 0, len(templates))
	for lang := range templates {
		langs = append(langs, lang)
	}
	return langs
}

// Render 渲染指定语言的消息模板（未知语言回退到英语）
func Render(lang, key string, params map[string]string) string {
	langTemplates, ok := templates[lang]
	if !ok {
		langTemplates = templates[DefaultLanguage]
	}

	tpl, ok := langTemplates[key]
	if !ok {
		tpl = templates[DefaultLanguage][key]
	}
	if tpl == "" {
		return ""
	}

	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
