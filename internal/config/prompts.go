package config

// DefaultExtractionPrompt asks the model for a faithful transcription of an exhibit info plate.
const DefaultExtractionPrompt = `请识别这张展品信息图片中的全部文字，要求：
1. 按原文顺序逐字转录，保持原有段落和换行；
2. 标题单独成行，使用 "### " 开头；
3. 图片中以【】标注的关键词原样保留；
4. 不要添加任何解释、翻译或总结；
5. 无法辨认的字用 □ 代替。
只输出转录后的文字。`

// DefaultPagePrompt asks the model to introduce one rendered book page.
// Placeholders: {page_number}, {total_pages}, {previous_summary}.
const DefaultPagePrompt = `这是《鲁迅藏汉画珍赏》中“武氏祠汉画”章节的第 {page_number} 页（共 {total_pages} 页）。
上一页概要：{previous_summary}

请完成以下任务：
1. 第一行用 "### " 开头给出本页标题；
2. 接着用一句话概括本页内容；
3. 然后完整转录本页正文文字，保持段落；
4. 若本页包含画像石图版，简要描述画面内容与所属祠堂位置。
只输出上述内容，不要添加额外说明。`
