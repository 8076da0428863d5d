package game

// Plantillas de mensajes al chat. El contenido queda en chino porque
// es la cara del juego hacia los grupos; el resto del sistema loguea
// en inglés.

const (
	msgNotRegistered  = "❌ 你还没有注册牛牛！发送「注册牛牛」开始游戏"
	msgAlreadyExists  = "❌ 你已经有牛牛了！长度: %s"
	msgRegistered     = "🎉 注册成功！你的牛牛长度为 %s，硬度 %d\n发送「打胶」开始成长吧！"
	msgPluginDisabled = "" // silencio: el plugin está apagado en este grupo
	msgPluginOn       = "✅ 牛牛插件已开启！发送「注册牛牛」开始游戏"
	msgPluginOff      = "🔇 牛牛插件已关闭"
	msgResetAll       = "♻️ 本群所有牛牛已重置（%d位用户）"

	msgDajiaoCooldown = "⏳ 牛牛还在贤者时间，%d分钟后再来吧"
	msgDajiaoFirst    = "🌅 每日首次打胶，额外 +2cm！"

	msgCompareSelf     = "❌ 不能和自己比划！"
	msgCompareNoTarget = "❌ 找不到对手「%s」，对方注册了吗？"
	msgCompareCooldown = "⏳ 你的牛牛刚比划完，%d分钟后再来"
	msgCompareDraw     = "⚖️ 势均力敌！双方平局，牛牛们互相致意"

	msgBetRange        = "❌ 赌注范围 %d-%d 金币"
	msgBetInsufficient = "❌ 金币不够下注！当前 %d 金币"

	msgNotFederated    = "ℹ️ 本群未加入任何联盟"
	msgAllianceCreated = "🤝 联盟成立！共 %d 个群组\n盟主群: %s"
	msgAllianceLeft    = "👋 已退出联盟，本群恢复独立"
	msgAllianceAuto    = "⚠️ 联盟成员不足2个，已自动解散"
	msgAllianceGone    = "💔 联盟已解散，各群恢复独立"
	msgAnchorLeave     = "❌ 盟主群不能退盟，请使用「牛牛解散联盟」"
	msgAnchorOnly      = "❌ 只有盟主群才能解散联盟"
	msgNoPermission    = "❌ 你没有权限执行这个操作"

	msgBroadcastFormed    = "📢 本群已加入牛牛联盟！排行榜与牛牛状态将跨群合并"
	msgBroadcastDissolved = "📢 牛牛联盟已解散，本群数据恢复独立"
)

// evaluación por longitud, umbrales del juego original
func evaluate(length float64) string {
	switch {
	case length < 0:
		return "三维空间装不下你的牛牛（凹进去了）"
	case length < 12:
		return "精致小巧，方便携带"
	case length < 25:
		return "中规中矩，再接再厉"
	case length < 50:
		return "威风凛凛，群里一霸"
	case length < 100:
		return "巨无霸！令人闻风丧胆"
	case length < 200:
		return "突破天际！物理学不存在了"
	default:
		return "宇宙级牛牛！NASA都在研究你"
	}
}
